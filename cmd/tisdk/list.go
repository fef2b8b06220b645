package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/install"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/inventory"
)

func (c *cli) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List installed Titanium SDKs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			sdks, err := a.manager.Installed(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(sdks, func(w io.Writer) error {
				return printSDKs(w, sdks)
			})
		},
	}
}

func printSDKs(w io.Writer, sdks []inventory.SDK) error {
	if len(sdks) == 0 {
		fmt.Fprintln(w, "No Titanium SDKs are installed.")
		return nil
	}
	rows := make([][]string, 0, len(sdks))
	for _, sdk := range sdks {
		rows = append(rows, []string{sdk.Name, sdk.Manifest.Version, sdk.Path})
	}
	return table(w, []string{"NAME", "VERSION", "PATH"}, rows)
}

func (c *cli) newModulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List installed Titanium modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			mods, err := a.manager.Modules(cmd.Context())
			if err != nil {
				return err
			}
			grouped := inventory.GroupModules(mods)
			return a.render(grouped, func(w io.Writer) error {
				return printModules(w, grouped)
			})
		},
	}
}

func printModules(w io.Writer, grouped map[string]map[string]map[string]inventory.Module) error {
	if len(grouped) == 0 {
		fmt.Fprintln(w, "No Titanium modules are installed.")
		return nil
	}
	var rows [][]string
	for _, platform := range sortedKeys(grouped) {
		for _, id := range sortedKeys(grouped[platform]) {
			for _, ver := range sortedKeys(grouped[platform][id]) {
				m := grouped[platform][id][ver]
				rows = append(rows, []string{platform, id, ver, m.Path})
			}
		}
	}
	return table(w, []string{"PLATFORM", "MODULE", "VERSION", "PATH"}, rows)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type locations struct {
	InstallLocation string   `json:"install_location" yaml:"install_location"`
	SDKs            []string `json:"sdks" yaml:"sdks"`
	Modules         []string `json:"modules" yaml:"modules"`
}

func (c *cli) newLocationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "Show where SDKs and modules are installed and looked for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			locs := locations{
				InstallLocation: a.cfg.SDK.InstallLocation,
				SDKs:            a.manager.InstallLocations(),
				Modules:         a.manager.ModuleLocations(),
			}
			return a.render(locs, func(w io.Writer) error {
				fmt.Fprintf(w, "Install location: %s\n\nSDK locations:\n", locs.InstallLocation)
				for _, p := range locs.SDKs {
					fmt.Fprintf(w, "  %s\n", p)
				}
				fmt.Fprintln(w, "\nModule locations:")
				for _, p := range locs.Modules {
					fmt.Fprintf(w, "  %s\n", p)
				}
				return nil
			})
		},
	}
}

func (c *cli) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the installed SDKs and modules whenever they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := c.load(ctx)
			if err != nil {
				return err
			}
			return c.watch(ctx, a)
		},
	}
}

func (c *cli) watch(ctx context.Context, a *app) error {
	var renderErr error
	err := a.manager.Watch(ctx, func(inv install.Inventory) {
		if renderErr != nil {
			return
		}
		renderErr = a.render(inv, func(w io.Writer) error {
			if err := printSDKs(w, inv.SDKs); err != nil {
				return err
			}
			fmt.Fprintln(w)
			return printModules(w, inventory.GroupModules(inv.Modules))
		})
		if a.format == formatText {
			fmt.Fprintln(a.out, "---")
		}
	})
	if err != nil {
		return err
	}
	return renderErr
}
