package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docs-extractor/internal/buildinfo"
)

// rootOptions are the persistent flags shared by every subcommand. Non-empty
// values override the config file and the environment.
type rootOptions struct {
	configPath string
	dbURL      string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:     "docextract",
		Short:   "Extract structured invoice and receipt data from PDFs and images",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&opts.dbURL, "db", "", "database URL (overrides DB_URL)")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	pf.StringVar(&opts.logFormat, "log-format", "", "text or json (overrides LOG_FORMAT)")

	rootCmd.AddCommand(
		newProcessCommand(opts),
		newBatchCommand(opts),
		newListCommand(opts),
		newExportCommand(opts),
		newMigrateCommand(opts),
	)

	return rootCmd
}
