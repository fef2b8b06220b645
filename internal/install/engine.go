// Package install extracts SDK archives into the SDK and module stores and
// wires resolution, download and extraction together behind Manager.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/archive"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/lock"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/logging"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

// sdkRoot matches entries at or under mobilesdk/<os>/<name>. An exact match
// only names the SDK when the entry is a directory.
var sdkRoot = regexp.MustCompile(`^mobilesdk/([^/]+)/([^/]+)(/|$)`)

const modulesDir = "modules"

// EngineOptions configures an Engine.
type EngineOptions struct {
	// InstallRoot receives SDKs as <InstallRoot>/<name>.
	InstallRoot string
	// ModuleStore receives modules as <ModuleStore>/<platform>/<id>/<version>.
	ModuleStore string
	// LockDir holds the per-name install locks. Empty disables locking.
	LockDir string
	// ScratchDir is where extraction directories are created. Empty uses
	// os.TempDir().
	ScratchDir string
	Logger     logging.Logger
}

// Engine installs archives.
type Engine struct {
	opts   EngineOptions
	logger logging.Logger
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOptions) *Engine {
	return &Engine{opts: opts, logger: logging.OrNop(opts.Logger)}
}

// ModuleResult reports what happened to one bundled module version.
type ModuleResult struct {
	Platform string `json:"platform" yaml:"platform"`
	ModuleID string `json:"moduleid" yaml:"moduleid"`
	Version  string `json:"version" yaml:"version"`
	Path     string `json:"path" yaml:"path"`
	Skipped  bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Installed reports whether the module was written.
func (m ModuleResult) Installed() bool {
	return !m.Skipped && m.Error == ""
}

// Outcome is a completed install.
type Outcome struct {
	Name    string
	Path    string
	Modules []ModuleResult
}

// Install extracts archivePath into a scratch directory, entry by entry,
// then moves the SDK tree to <InstallRoot>/<name> and each bundled module
// version into the module store. The destination is checked, under the
// install lock for name, as soon as the first SDK entry reveals name. The
// scratch directory is removed on every path.
func (e *Engine) Install(ctx context.Context, archivePath string, overwrite bool) (*Outcome, error) {
	scratchBase := e.opts.ScratchDir
	if scratchBase == "" {
		scratchBase = os.TempDir()
	}
	scratch := filepath.Join(scratchBase, "tisdk-extract-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			e.logger.Warn("failed to remove scratch dir", "dir", scratch, "error", err)
		}
	}()
	root, err := os.OpenRoot(scratch)
	if err != nil {
		return nil, fmt.Errorf("open scratch dir: %w", err)
	}
	defer root.Close()

	r, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var (
		name, osDir, dest string
		held              *lock.Lock
	)
	defer func() {
		if err := held.Release(); err != nil {
			e.logger.Warn("failed to release install lock", "error", err)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, unsafePath(err, archivePath)
		}

		if name == "" {
			if m := sdkRoot.FindStringSubmatch(entry.Name); m != nil && (m[3] == "/" || entry.IsDir) {
				osDir, name = m[1], m[2]
				dest = filepath.Join(e.opts.InstallRoot, name)

				if held, err = e.lock(ctx, name); err != nil {
					return nil, err
				}
				if exists(dest) && !overwrite {
					return nil, sdkerr.Conflict("Titanium SDK %q is already installed at %s", name, dest).
						With("name", name).
						With("path", dest)
				}
				e.logger.Debug("found SDK root", "name", name, "dest", dest)
			}
		}

		if err := entry.WriteToRoot(root); err != nil {
			return nil, unsafePath(fmt.Errorf("extract %s: %w", entry.Name, err), archivePath)
		}
	}

	if name == "" {
		return nil, sdkerr.InvalidPackage("archive %s does not contain a Titanium SDK", filepath.Base(archivePath)).
			With("file", archivePath)
	}

	src := filepath.Join(scratch, "mobilesdk", osDir, name)
	if err := replaceDir(src, dest, overwrite); err != nil {
		return nil, fmt.Errorf("install %s: %w", name, err)
	}
	e.logger.Info("installed SDK", "name", name, "path", dest)

	return &Outcome{
		Name:    name,
		Path:    dest,
		Modules: e.installModules(filepath.Join(scratch, modulesDir), overwrite),
	}, nil
}

// unsafePath reports archive entries that would land outside the scratch
// directory as an invalid package.
func unsafePath(err error, archivePath string) error {
	if errors.Is(err, archive.ErrUnsafePath) {
		return sdkerr.InvalidPackage("archive %s contains an unsafe path", filepath.Base(archivePath)).
			With("file", archivePath)
	}
	return err
}

func (e *Engine) lock(ctx context.Context, name string) (*lock.Lock, error) {
	if e.opts.LockDir == "" {
		return nil, nil
	}
	e.logger.Debug("acquiring install lock", "name", name)
	return lock.Acquire(ctx, e.opts.LockDir, name)
}

// installModules moves each modules/<platform>/<id>/<version> directory of
// the extracted archive into the module store. Failures are recorded per
// module and never stop the rest.
func (e *Engine) installModules(dir string, overwrite bool) []ModuleResult {
	var results []ModuleResult

	for _, platform := range subdirs(dir) {
		for _, id := range subdirs(filepath.Join(dir, platform)) {
			for _, ver := range subdirs(filepath.Join(dir, platform, id)) {
				res := ModuleResult{
					Platform: platform,
					ModuleID: id,
					Version:  ver,
					Path:     filepath.Join(e.opts.ModuleStore, platform, id, ver),
				}

				if exists(res.Path) && !overwrite {
					res.Skipped = true
					e.logger.Warn("module already installed, skipping", "platform", platform, "module", id, "version", ver, "path", res.Path)
				} else if err := replaceDir(filepath.Join(dir, platform, id, ver), res.Path, overwrite); err != nil {
					res.Error = err.Error()
					e.logger.Error("failed to install module", "platform", platform, "module", id, "version", ver, "error", err)
				} else {
					e.logger.Info("installed module", "platform", platform, "module", id, "version", ver)
				}
				results = append(results, res)
			}
		}
	}
	return results
}

func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
