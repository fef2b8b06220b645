package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/install"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/inventory"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/resolve"
)

func (c *cli) newInstallCmd() *cobra.Command {
	var opts install.InstallOptions

	cmd := &cobra.Command{
		Use:   "install [specifier]",
		Short: "Download and install a Titanium SDK",
		Long: `Install a Titanium SDK. The specifier may be a local .zip/.tar.gz/.tgz
archive, an http(s) URL, a release version (7.0.0 or 7.0.0.GA), a CI build
name (8.0.0.v20190101120000), a branch name, or <branch>:<build>.
Without a specifier the latest release is installed.`,
		Example: `  tisdk install
  tisdk install 7.0.0.GA
  tisdk install master
  tisdk install master:8.0.0.v20190101120000
  tisdk install ~/Downloads/mobilesdk-7.0.0.GA-linux.zip`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specifier := resolve.Latest
			if len(args) == 1 {
				specifier = args[0]
			}

			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.manager.Install(cmd.Context(), specifier, opts)
			if err != nil {
				return err
			}
			return a.render(res, func(w io.Writer) error {
				return printInstallResult(w, res)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Overwrite, "force", "f", false, "replace an SDK or module version that is already installed")
	cmd.Flags().BoolVarP(&opts.KeepDownload, "keep-files", "k", false, "keep the downloaded archive in the downloads directory")
	return cmd
}

func printInstallResult(w io.Writer, res *install.Result) error {
	fmt.Fprintf(w, "Titanium SDK %s installed to %s\n", res.Name, res.Path)
	if res.Download != "" {
		fmt.Fprintf(w, "Archive kept at %s\n", res.Download)
	}
	for _, m := range res.Modules {
		switch {
		case m.Skipped:
			fmt.Fprintf(w, "  skipped   %s %s@%s (already installed)\n", m.Platform, m.ModuleID, m.Version)
		case m.Error != "":
			fmt.Fprintf(w, "  failed    %s %s@%s: %s\n", m.Platform, m.ModuleID, m.Version, m.Error)
		default:
			fmt.Fprintf(w, "  installed %s %s@%s\n", m.Platform, m.ModuleID, m.Version)
		}
	}
	return nil
}

func (c *cli) newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name-or-path>",
		Short: "Remove an installed Titanium SDK",
		Long: `Remove every installed SDK whose directory name or path matches.
Modules installed alongside the SDK are left in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := a.manager.Uninstall(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.render(removed, func(w io.Writer) error {
				return printRemoved(w, removed)
			})
		},
	}
}

func printRemoved(w io.Writer, removed []inventory.SDK) error {
	for _, sdk := range removed {
		fmt.Fprintf(w, "Removed Titanium SDK %s from %s\n", sdk.Name, sdk.Path)
	}
	return nil
}
