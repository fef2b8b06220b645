package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/version"
)

// Release is one entry of the release list.
type Release struct {
	// Name is the catalog key, usually with its qualifier, e.g. "7.0.0.GA".
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	URL       string `json:"url" yaml:"url"`
	OS        string `json:"os" yaml:"os"`
	BuildType string `json:"build_type" yaml:"build_type"`
}

// Releases maps release names to the entry installable on this machine.
type Releases map[string]Release

// Names returns the release names, newest first.
func (r Releases) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if c := version.Compare(names[i], names[j]); c != 0 {
			return c > 0
		}
		return names[i] > names[j]
	})
	return names
}

// Latest returns the newest release. ok is false for an empty catalog.
func (r Releases) Latest() (rel Release, ok bool) {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	if len(names) == 0 {
		return Release{}, false
	}
	return r[version.Max(names)], true
}

// releaseList accepts the bare array or an object wrapping it.
type releaseList []Release

func (l *releaseList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Releases []Release `json:"releases"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		*l = wrapped.Releases
		return nil
	}
	var list []Release
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Releases fetches the release list and keeps the entries for this OS and,
// outside macOS, this machine's bitness.
func (c *Client) Releases(ctx context.Context) (Releases, error) {
	var list releaseList
	if err := c.getJSON(ctx, c.opts.ReleasesURL, &list); err != nil {
		return nil, err
	}

	out := make(Releases)
	for _, rel := range list {
		if !c.installable(rel) {
			continue
		}
		out[rel.Name] = rel
	}
	c.logger.Debug("fetched releases", "total", len(list), "installable", len(out))
	return out, nil
}

func (c *Client) installable(rel Release) bool {
	if rel.Name == "" || rel.URL == "" || rel.OS != c.platform.Name {
		return false
	}
	return c.platform.IsMacOS() || rel.BuildType == c.platform.BuildType()
}
