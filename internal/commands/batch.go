package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBatchCommand(opts *rootOptions) *cobra.Command {
	var docType string
	var includeHidden bool

	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Process every pdf and image under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseTypeFlag(docType); err != nil {
				return err
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

			results, stats, err := proc.ProcessDirectory(ctx, args[0], docType, !includeHidden)
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != "" {
					fmt.Fprintf(out, "FAIL %s: %s\n", r.Path, r.Err)
					continue
				}
				fmt.Fprintf(out, "ok   %s -> %s id=%d\n", r.Path, r.Report.DocumentType, r.Report.ID)
			}
			fmt.Fprintf(out, "scanned=%d matched=%d succeeded=%d failed=%d\n",
				stats.Scanned, stats.Matched, stats.Succeeded, stats.Failed)
			if err != nil {
				return err
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%d of %d documents failed", stats.Failed, stats.Matched)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&docType, "type", defaultProcessType, "document type: invoice or receipt")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "also process hidden files and directories")

	return cmd
}
