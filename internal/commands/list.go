package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docs-extractor/constants"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var docType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored invoices and receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			types := constants.DocumentTypes
			if docType != "" {
				t, err := parseTypeFlag(docType)
				if err != nil {
					return err
				}
				types = []constants.DocumentType{t}
			}

			ctx := cmd.Context()
			a, err := startApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tID\tVENDOR\tTOTAL\tDATE\tDATE DEFAULTED\tFILE PATH")
			for _, t := range types {
				docs, err := a.docs.List(ctx, t)
				if err != nil {
					return err
				}
				for _, d := range docs {
					path := ""
					if d.FilePath != nil {
						path = *d.FilePath
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%.2f\t%s\t%t\t%s\n",
						t, d.ID, d.VendorName, d.TotalAmount, d.Date.Format("2006-01-02"), d.DateDefaulted, path)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&docType, "type", "", "only list one document type: invoice or receipt")

	return cmd
}
