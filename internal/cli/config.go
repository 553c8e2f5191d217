package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/MrEthical07/goGate/configstore"
	"github.com/spf13/cobra"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or replace the persisted gate configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration the server would load, as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg, status, _ := rt.store().LoadWithStatus(cmd.Context())
			out := struct {
				Source        string                    `json:"source"`
				Configuration configstore.Configuration `json:"configuration"`
			}{Source: status.String(), Configuration: cfg}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	var exportPath string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			data, err := configstore.EncodeYAML(rt.store().Load(cmd.Context()))
			if err != nil {
				return err
			}
			if exportPath == "" || exportPath == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(exportPath, data, 0o644)
		},
	}
	export.Flags().StringVarP(&exportPath, "out", "o", "", "Output file (default stdout)")

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Validate a YAML configuration and persist it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			cfg, err := configstore.DecodeYAML(data)
			if err != nil {
				return err
			}
			cfg = configstore.Sanitize(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.store().Save(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("failed to persist configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %q with %d checkpoints\n", cfg.AppName, len(cfg.Checkpoints))
			return nil
		},
	}

	cmd.AddCommand(show, export, importCmd)
	return cmd
}
