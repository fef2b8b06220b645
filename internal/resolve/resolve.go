// Package resolve turns a user specifier into something installable: a
// local archive, a URL given verbatim, a release or a CI build.
//
// Sources are tried in a fixed order. An existing local file always wins,
// then an http(s) URL in the specifier, then the release catalog, then the
// CI builds of each branch. Branch build indexes are fetched lazily and the
// search stops at the first branch with a match.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/archive"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/catalog"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/logging"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/version"
)

// Latest selects the newest release, or the newest CI build when no release
// is installable.
const Latest = "latest"

// Source identifies which step satisfied a specifier.
type Source string

const (
	SourceLocal   Source = "local"
	SourceURL     Source = "url"
	SourceRelease Source = "release"
	SourceBuild   Source = "build"
)

var (
	fileURI       = regexp.MustCompile(`^file://(.+)$`)
	httpURL       = regexp.MustCompile(`https?://\S+`)
	branchVersion = regexp.MustCompile(`^([^:/\\\s]+):(.+)$`)
)

// Resolved is the outcome of a successful resolution. Exactly one of URL
// and LocalFile is set.
type Resolved struct {
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	LocalFile string `json:"local_file,omitempty" yaml:"local_file,omitempty"`

	Source Source `json:"source" yaml:"source"`
	// Name is the release or CI build name that matched, e.g. "7.0.0.GA".
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Version is Name without its qualifier chain.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Branch  string `json:"branch,omitempty" yaml:"branch,omitempty"`
	GitHash string `json:"githash,omitempty" yaml:"githash,omitempty"`
}

// Resolver resolves specifiers against a catalog.
type Resolver struct {
	catalog catalog.Catalog
	logger  logging.Logger
}

// New returns a Resolver backed by c.
func New(c catalog.Catalog, logger logging.Logger) *Resolver {
	return &Resolver{catalog: c, logger: logging.OrNop(logger)}
}

// Resolve resolves specifier. An empty specifier means Latest.
func (r *Resolver) Resolve(ctx context.Context, specifier string) (*Resolved, error) {
	specifier = strings.TrimSpace(specifier)

	if res, ok, err := r.resolveLocal(specifier); ok || err != nil {
		return res, err
	}

	if m := httpURL.FindString(specifier); m != "" {
		r.logger.Debug("specifier is a URL", "url", m)
		return &Resolved{URL: m, Source: SourceURL}, nil
	}

	target := specifier
	if target == "" {
		target = Latest
	}

	res, err := r.resolveRelease(ctx, target)
	if res != nil || err != nil {
		return res, err
	}

	res, searched, err := r.resolveBuild(ctx, target)
	if res != nil || err != nil {
		return res, err
	}

	if target == Latest {
		return nil, sdkerr.NotFound("no installable Titanium SDK releases or CI builds were found").
			With("branches", searched)
	}
	return nil, sdkerr.NotFound("unable to find any Titanium SDK releases or CI builds that match %q", specifier).
		With("specifier", specifier).
		With("branches", searched)
}

// resolveLocal reports ok when specifier names a local file.
func (r *Resolver) resolveLocal(specifier string) (*Resolved, bool, error) {
	if specifier == "" {
		return nil, false, nil
	}

	path := specifier
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		m := fileURI.FindStringSubmatch(specifier)
		if m == nil {
			return nil, false, nil
		}
		path = m[1]
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, sdkerr.NotFound("file %s does not exist", path).With("file", path)
		}
		if err != nil {
			return nil, false, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, false, sdkerr.BadInput("%s is a directory, not an archive", path).With("file", path)
		}
	}

	if !archive.Supported(path) {
		return nil, false, sdkerr.BadInput("file %s is not a supported archive (expected .zip, .tar.gz or .tgz)", path).
			With("file", path)
	}

	r.logger.Debug("specifier is a local file", "file", path)
	return &Resolved{LocalFile: path, Source: SourceLocal}, true, nil
}

// resolveRelease returns nil without error when no release matches.
func (r *Resolver) resolveRelease(ctx context.Context, target string) (*Resolved, error) {
	releases, err := r.catalog.Releases(ctx)
	if err != nil {
		return nil, err
	}

	var rel catalog.Release
	var ok bool
	if target == Latest {
		rel, ok = releases.Latest()
	} else if rel, ok = releases[target]; !ok {
		rel, ok = releases[version.WithQualifier(target)]
	}
	if !ok {
		return nil, nil
	}

	r.logger.Debug("specifier matched release", "name", rel.Name, "url", rel.URL)
	return &Resolved{
		URL:     rel.URL,
		Source:  SourceRelease,
		Name:    rel.Name,
		Version: version.StripQualifier(rel.Name),
	}, nil
}

// resolveBuild searches the CI builds. It returns the branches whose
// indexes were searched.
func (r *Resolver) resolveBuild(ctx context.Context, target string) (*Resolved, []string, error) {
	branches, err := r.catalog.Branches(ctx)
	if err != nil {
		return nil, nil, err
	}

	var order []string
	if m := branchVersion.FindStringSubmatch(target); m != nil {
		if !branches.Has(m[1]) {
			return nil, nil, sdkerr.BadInput("invalid branch %q", m[1]).
				With("branch", m[1]).
				With("branches", branches.SearchOrder())
		}
		order = []string{m[1]}
		target = m[2]
	} else if branches.Has(target) {
		order = []string{target}
		target = Latest
	} else {
		order = branches.SearchOrder()
	}

	searched := make([]string, 0, len(order))
	for _, branch := range order {
		if err := ctx.Err(); err != nil {
			return nil, searched, err
		}

		builds, err := r.catalog.Builds(ctx, branch)
		if err != nil {
			return nil, searched, err
		}
		searched = append(searched, branch)

		sorted := append([]catalog.Build(nil), builds...)
		catalog.SortBuilds(sorted)

		for _, b := range sorted {
			if target == Latest || b.Name == target || b.GitHash == target {
				r.logger.Debug("specifier matched CI build", "branch", branch, "name", b.Name, "url", b.URL)
				return &Resolved{
					URL:     b.URL,
					Source:  SourceBuild,
					Name:    b.Name,
					Version: b.Version,
					Branch:  branch,
					GitHash: b.GitHash,
				}, searched, nil
			}
		}
	}
	return nil, searched, nil
}
