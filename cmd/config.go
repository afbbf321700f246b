package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/projsync/cli"
	"github.com/grovetools/projsync/config"
	"github.com/grovetools/projsync/errors"
	"github.com/grovetools/projsync/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd groups configuration inspection commands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect projsync configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging the global file with the nearest
projsync.yml, expanding environment variables and applying defaults.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				return printJSON(cmd, cfg)
			}

			if path := cli.GetOptions(cmd).ConfigFile; path == "" {
				if cwd, err := os.Getwd(); err == nil {
					if found, err := config.FindConfigFile(cwd); err == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "# Source: %s\n", found)
					}
				}
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// schemaGenerators maps the argument of "config schema" to its generator.
var schemaGenerators = map[string]func() ([]byte, error){
	"":        config.GenerateSchema,
	"logging": logging.GenerateSchema,
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [extension]",
		Short: "Print the JSON schema of projsync.yml or one of its extensions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			generate, ok := schemaGenerators[name]
			if !ok {
				return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("no schema for extension %q", name)).
					WithDetail("extension", name)
			}
			data, err := generate()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
