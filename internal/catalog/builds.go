package catalog

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/version"
)

// buildFilename matches mobilesdk-<version>(.v|-)<yyyymmddhhmmss>-<platform>.
var buildFilename = regexp.MustCompile(`^mobilesdk-([\d.]+)(?:\.v|-)((\d{4})(\d{2})(\d{2})(\d{2})(\d{2})(\d{2}))-([^.]+)`)

// Build is a CI build of one branch.
type Build struct {
	// Name is <version>.v<timestamp>, the form users pass as a specifier.
	Name      string    `json:"name" yaml:"name"`
	Version   string    `json:"version" yaml:"version"`
	Timestamp string    `json:"ts" yaml:"ts"`
	GitHash   string    `json:"githash" yaml:"githash"`
	Date      time.Time `json:"date" yaml:"date"`
	Branch    string    `json:"branch" yaml:"branch"`
	Filename  string    `json:"filename" yaml:"filename"`
	URL       string    `json:"url" yaml:"url"`
}

type buildEntry struct {
	BuildType   string `json:"build_type"`
	Filename    string `json:"filename"`
	GitBranch   string `json:"git_branch"`
	GitRevision string `json:"git_revision"`
}

// SortBuilds orders builds newest first: by version, then by timestamp.
func SortBuilds(builds []Build) {
	sort.SliceStable(builds, func(i, j int) bool {
		if c := version.Compare(builds[i].Version, builds[j].Version); c != 0 {
			return c > 0
		}
		return version.CompareTimestamp(builds[i].Timestamp, builds[j].Timestamp) > 0
	})
}

// BuildsURL returns the index URL for branch.
func (c *Client) BuildsURL(branch string) string {
	return fmt.Sprintf(c.opts.BuildsURL, url.PathEscape(branch))
}

// Builds fetches the build index for branch and keeps the builds whose
// filename follows the naming scheme and mentions this OS. The result is
// sorted with SortBuilds.
func (c *Client) Builds(ctx context.Context, branch string) ([]Build, error) {
	indexURL := c.BuildsURL(branch)

	var entries []buildEntry
	if err := c.getJSON(ctx, indexURL, &entries); err != nil {
		return nil, err
	}

	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("parse builds URL: %w", err)
	}

	var builds []Build
	for _, e := range entries {
		b, ok := parseBuild(e.Filename)
		if !ok || !strings.Contains(e.Filename, c.platform.Name) {
			continue
		}
		ref, err := url.Parse(url.PathEscape(e.Filename))
		if err != nil {
			continue
		}
		b.GitHash = e.GitRevision
		b.Branch = branch
		b.URL = base.ResolveReference(ref).String()
		builds = append(builds, b)
	}

	SortBuilds(builds)
	c.logger.Debug("fetched builds", "branch", branch, "total", len(entries), "installable", len(builds))
	return builds, nil
}

// parseBuild extracts version, timestamp and date from a build filename.
func parseBuild(filename string) (Build, bool) {
	m := buildFilename.FindStringSubmatch(filename)
	if m == nil {
		return Build{}, false
	}

	var parts [6]int
	for i := range parts {
		parts[i], _ = strconv.Atoi(m[3+i])
	}
	date := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)

	return Build{
		Name:      m[1] + ".v" + m[2],
		Version:   m[1],
		Timestamp: m[2],
		Date:      date,
		Filename:  filename,
	}, true
}
