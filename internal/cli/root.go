// Package cli implements the gogate command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootOptions struct {
	configPath string
	redisAddr  string
	backend    string
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "gogate",
		Short: "Checkpoint-gated key issuance server",
		Long: `gogate - checkpoint-gated key issuance

Visitors walk a configured list of checkpoints (open a link, leave the page,
wait out a countdown, verify) and receive a time-limited key at the end.
An admin surface edits the checkpoint list.

The checkpoints are a weak engagement gate, not access control.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to settings file (TOML)")
	root.PersistentFlags().StringVar(&opts.redisAddr, "redis", "", "Redis address, or \"memory\" for an in-process server")
	root.PersistentFlags().StringVar(&opts.backend, "store", "", "Configuration backend (memory, redis, sqlite)")

	root.AddCommand(
		newServeCommand(opts),
		newConfigCommand(opts),
		newDryRunCommand(opts),
		newHashSecretCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gogate %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
