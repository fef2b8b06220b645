package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/catalog"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

func (c *cli) newReleasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "releases",
		Short: "List Titanium SDK releases installable on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			releases, err := a.manager.Catalog().Releases(cmd.Context())
			if err != nil {
				return err
			}

			ordered := make([]catalog.Release, 0, len(releases))
			for _, name := range releases.Names() {
				ordered = append(ordered, releases[name])
			}
			return a.render(ordered, func(w io.Writer) error {
				if len(ordered) == 0 {
					fmt.Fprintf(w, "No releases are available for %s.\n", a.info.Name)
					return nil
				}
				rows := make([][]string, 0, len(ordered))
				for _, r := range ordered {
					rows = append(rows, []string{r.Name, r.Version, r.URL})
				}
				return table(w, []string{"NAME", "VERSION", "URL"}, rows)
			})
		},
	}
}

func (c *cli) newBranchesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branches",
		Short: "List CI branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			branches, err := a.manager.Catalog().Branches(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(branches, func(w io.Writer) error {
				for _, b := range branches.SearchOrder() {
					if b == branches.DefaultBranch {
						fmt.Fprintf(w, "* %s (default)\n", b)
					} else {
						fmt.Fprintf(w, "  %s\n", b)
					}
				}
				return nil
			})
		},
	}
}

func (c *cli) newBuildsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "builds <branch>",
		Short: "List CI builds of a branch for this machine, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			branch := args[0]
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}

			cat := a.manager.Catalog()
			branches, err := cat.Branches(cmd.Context())
			if err != nil {
				return err
			}
			if !branches.Has(branch) {
				return sdkerr.BadInput("branch %q does not exist", branch).
					With("branches", branches.SearchOrder())
			}

			builds, err := cat.Builds(cmd.Context(), branch)
			if err != nil {
				return err
			}
			return a.render(builds, func(w io.Writer) error {
				if len(builds) == 0 {
					fmt.Fprintf(w, "Branch %s has no builds for %s.\n", branch, a.info.Name)
					return nil
				}
				rows := make([][]string, 0, len(builds))
				for _, b := range builds {
					rows = append(rows, []string{b.Name, b.Date.Format("2006-01-02 15:04"), b.GitHash})
				}
				return table(w, []string{"NAME", "DATE", "GITHASH"}, rows)
			})
		},
	}
}
