package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docs-extractor/constants"
	"github.com/joseph-ayodele/docs-extractor/internal/pipeline"
)

const (
	defaultProcessPath = "invoice.pdf"
	defaultProcessType = "invoice"
)

func newProcessCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process [path] [invoice|receipt]",
		Short: "Extract one document and store it",
		Long: "Stores the upload, extracts its text, asks the model for the fields and saves the row.\n" +
			"Path defaults to " + defaultProcessPath + " and type to " + defaultProcessType + ".",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, label := defaultProcessPath, defaultProcessType
			if len(args) > 0 {
				path = args[0]
			}
			if len(args) > 1 {
				label = args[1]
			}

			ctx := cmd.Context()
			a, err := startApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			proc, err := a.processor(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processing %s...\n", label)
			rep, err := proc.ProcessFile(ctx, path, label)
			printReport(out, rep)
			return err
		},
	}
}

func printReport(w io.Writer, rep pipeline.Report) {
	if rep.Location != "" {
		fmt.Fprintf(w, "Stored upload: %s\n", rep.Location)
	}
	if f := rep.Fields; f != nil {
		vendor := "-"
		if f.VendorName != nil {
			vendor = *f.VendorName
		}
		fmt.Fprintf(w, "Vendor: %s\n", vendor)
		fmt.Fprintf(w, "Total: %s\n", formatTotal(f.TotalAmount, f.Amount))
		if f.DateDefaulted {
			fmt.Fprintf(w, "Date: %s (defaulted)\n", f.Date.Format("2006-01-02"))
		} else {
			fmt.Fprintf(w, "Date: %s\n", f.Date.Format("2006-01-02"))
		}
	}
	fmt.Fprintf(w, "Result: %s\n", rep.Result)
}

// formatTotal prints the total, falling back to the amount.
func formatTotal(total, amount *float64) string {
	switch {
	case total != nil:
		return strconv.FormatFloat(*total, 'f', 2, 64)
	case amount != nil:
		return strconv.FormatFloat(*amount, 'f', 2, 64)
	default:
		return "-"
	}
}

func parseTypeFlag(label string) (constants.DocumentType, error) {
	docType, ok := constants.ParseDocumentType(label)
	if !ok {
		return "", fmt.Errorf("invalid --type %q: want invoice or receipt", label)
	}
	return docType, nil
}
