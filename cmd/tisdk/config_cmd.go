package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/config"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the tisdk config file",
	}
	cmd.AddCommand(c.newConfigInitCmd(), c.newConfigShowCmd())
	return cmd
}

func (c *cli) newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults for this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := c.configPath()
			if err != nil {
				return err
			}
			if fileExists(path) && !force {
				return sdkerr.Conflict("config file %s already exists", path).With("path", path)
			}

			info, err := c.detector.Detect(cmd.Context())
			if err != nil {
				return fmt.Errorf("detect platform: %w", err)
			}
			if err := config.WriteFile(path, config.Default(info)); err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	return cmd
}

func (c *cli) newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after the config file, TISDK_* environment
variables and flags are applied, with paths expanded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(a.cfg, func(w io.Writer) error {
				source := a.cfgPath
				if !a.cfgFound {
					source += " (not found, using defaults)"
				}
				fmt.Fprintf(w, "-- config: %s\n", source)
				_, err := io.WriteString(w, config.NewGenerator().Generate(a.cfg))
				return err
			})
		},
	}
}
