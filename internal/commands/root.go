package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/glengine/internal/buildinfo"
	"github.com/cleared-dev/glengine/internal/config"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	tenant     string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "glengine",
		Short:   "General-ledger balances, transaction feeds and financial reports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.FileName, "path to the config file")
	rootCmd.PersistentFlags().StringVar(&opts.tenant, "tenant", "", "tenant id (defaults to default_tenant from the config)")

	rootCmd.AddCommand(
		newInitCommand(opts),
		newBalancesCommand(opts),
		newTransactionsCommand(opts),
		newSummaryCommand(opts),
		newReportCommand(opts),
		newExportCommand(opts),
		newValidateCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
