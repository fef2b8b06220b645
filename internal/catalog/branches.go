package catalog

import (
	"context"
	"sort"
)

// Branches is the CI branch list.
type Branches struct {
	Branches      []string `json:"branches" yaml:"branches"`
	DefaultBranch string   `json:"defaultBranch" yaml:"default_branch"`
}

// Has reports whether name is a known branch.
func (b *Branches) Has(name string) bool {
	for _, br := range b.Branches {
		if br == name {
			return true
		}
	}
	return false
}

// SearchOrder returns the order branches are searched in: the default
// branch first, then the rest in reverse lexical order.
func (b *Branches) SearchOrder() []string {
	rest := make([]string, 0, len(b.Branches))
	for _, br := range b.Branches {
		if br != b.DefaultBranch {
			rest = append(rest, br)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(rest)))

	if b.DefaultBranch == "" {
		return rest
	}
	return append([]string{b.DefaultBranch}, rest...)
}

// Branches fetches the CI branch list.
func (c *Client) Branches(ctx context.Context) (*Branches, error) {
	var b Branches
	if err := c.getJSON(ctx, c.opts.BranchesURL, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
