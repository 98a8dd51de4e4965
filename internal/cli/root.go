package cli

import (
	"github.com/spf13/cobra"

	"github.com/opcmap/policymap/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Global flags:
//   - --config: path to policymap.toml (default: ./policymap.toml if present)
//   - --data: data root, overriding the config file and POLICYMAP_DATA_DIR
//
// The config is resolved once per invocation, before any subcommand runs,
// and the CLI logger is attached to the command context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Policymap browses and maintains a YAML policy dataset",
		Long: `Policymap reads a directory of government policy and park records written as
YAML, and lets you query them, lint them, check them for expiry, serve them as
a JSON API, or browse them interactively.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./policymap.toml)")
	root.PersistentFlags().StringVar(&c.dataDir, "data", "", "data root directory (overrides config)")

	// Register all subcommands
	root.AddCommand(c.policiesCommand())
	root.AddCommand(c.parksCommand())
	root.AddCommand(c.citiesCommand())
	root.AddCommand(c.tagsCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.expiryCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.completionCommand())

	return root
}
