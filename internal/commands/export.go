package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docs-extractor/internal/export"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored documents to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := startApp(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := export.NewService(a.docs, a.logger).ExportXLSX(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(b))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "documents.xlsx", "output XLSX file path")

	return cmd
}
