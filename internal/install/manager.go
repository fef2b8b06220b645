package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/catalog"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/config"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/download"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/inventory"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/logging"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/resolve"
	"github.com/ZebulonRouseFrantzich/tisdk/internal/sdkerr"
)

// InstallOptions controls a single install.
type InstallOptions struct {
	// Overwrite replaces an existing SDK and existing module versions.
	Overwrite bool
	// KeepDownload stores the archive in the downloads dir instead of a
	// temporary directory that is removed afterwards.
	KeepDownload bool
}

// Result describes a completed install.
type Result struct {
	Name      string         `json:"name" yaml:"name"`
	Path      string         `json:"path" yaml:"path"`
	Version   string         `json:"version,omitempty" yaml:"version,omitempty"`
	Source    resolve.Source `json:"source" yaml:"source"`
	URL       string         `json:"url,omitempty" yaml:"url,omitempty"`
	LocalFile string         `json:"local_file,omitempty" yaml:"local_file,omitempty"`
	// Download is the kept archive, set only with KeepDownload.
	Download string         `json:"download,omitempty" yaml:"download,omitempty"`
	Modules  []ModuleResult `json:"modules,omitempty" yaml:"modules,omitempty"`
}

// Options configures a Manager.
type Options struct {
	// Config must have its paths expanded.
	Config   *config.Config
	Platform *platform.Info
	// Catalog defaults to an HTTP catalog.Client built from Config.
	Catalog catalog.Catalog
	// Downloader defaults to one built from Config.
	Downloader *download.Downloader
	// ScratchDir is passed to the Engine.
	ScratchDir string
	Logger     logging.Logger
}

// Manager installs, lists and removes SDKs.
type Manager struct {
	cfg        *config.Config
	platform   *platform.Info
	catalog    catalog.Catalog
	resolver   *resolve.Resolver
	downloader *download.Downloader
	engine     *Engine
	logger     logging.Logger
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	logger := logging.OrNop(opts.Logger)
	cfg := opts.Config

	client := catalog.NewHTTPClient(cfg.Network.Timeout)
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.NewClient(opts.Platform, catalog.Options{
			ReleasesURL: cfg.Network.ReleasesURL,
			BranchesURL: cfg.Network.BranchesURL,
			BuildsURL:   cfg.Network.BuildsURL,
			UserAgent:   cfg.Network.UserAgent,
			HTTPClient:  client,
			Logger:      logger,
		})
	}
	dl := opts.Downloader
	if dl == nil {
		dl = download.New(download.Options{
			HTTPClient: client,
			UserAgent:  cfg.Network.UserAgent,
			Logger:     logger,
		})
	}

	return &Manager{
		cfg:        cfg,
		platform:   opts.Platform,
		catalog:    cat,
		resolver:   resolve.New(cat, logger),
		downloader: dl,
		engine: NewEngine(EngineOptions{
			InstallRoot: cfg.SDK.InstallLocation,
			ModuleStore: cfg.ModuleStore(),
			LockDir:     cfg.Locks.Dir,
			ScratchDir:  opts.ScratchDir,
			Logger:      logger,
		}),
		logger: logger,
	}
}

// Catalog returns the catalog the Manager resolves against.
func (m *Manager) Catalog() catalog.Catalog {
	return m.catalog
}

// Install resolves specifier, downloads it unless it is a local file, and
// installs it.
func (m *Manager) Install(ctx context.Context, specifier string, opts InstallOptions) (*Result, error) {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return nil, sdkerr.BadInput("missing SDK version, branch, build, URL or archive path")
	}

	res, err := m.resolver.Resolve(ctx, specifier)
	if err != nil {
		return nil, err
	}
	m.logger.Info("resolved SDK", "specifier", specifier, "source", res.Source, "url", res.URL, "file", res.LocalFile)

	out := &Result{
		Version:   res.Version,
		Source:    res.Source,
		URL:       res.URL,
		LocalFile: res.LocalFile,
	}

	archivePath := res.LocalFile
	if archivePath == "" {
		dir := ""
		if opts.KeepDownload {
			dir = m.cfg.Downloads.Dir
		}
		f, err := m.downloader.Download(ctx, res.URL, dir)
		if err != nil {
			return nil, err
		}
		if f.Temp {
			defer func() {
				if err := os.RemoveAll(f.Dir); err != nil {
					m.logger.Warn("failed to remove download dir", "dir", f.Dir, "error", err)
				}
			}()
		} else {
			out.Download = f.Path
		}
		archivePath = f.Path
	}

	outcome, err := m.engine.Install(ctx, archivePath, opts.Overwrite)
	if err != nil {
		return nil, err
	}

	out.Name = outcome.Name
	out.Path = outcome.Path
	out.Modules = outcome.Modules
	if sdk, ok := inventory.ClassifySDK(outcome.Path); ok && sdk.Manifest.Version != "" {
		out.Version = sdk.Manifest.Version
	}
	return out, nil
}

// Uninstall removes every installed SDK whose name or path equals specifier and
// returns them. Modules installed alongside an SDK are left in place.
func (m *Manager) Uninstall(ctx context.Context, specifier string) ([]inventory.SDK, error) {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return nil, sdkerr.BadInput("missing SDK name or path")
	}

	sdks, err := m.Installed(ctx)
	if err != nil {
		return nil, err
	}

	absSpec, _ := filepath.Abs(specifier)
	var matched []inventory.SDK
	for _, sdk := range sdks {
		if sdk.Name == specifier || sdk.Path == specifier || sdk.Path == absSpec {
			matched = append(matched, sdk)
		}
	}
	if len(matched) == 0 {
		return nil, sdkerr.NotFound("Titanium SDK %q is not installed", specifier).With("specifier", specifier)
	}

	for _, sdk := range matched {
		m.logger.Info("removing SDK", "name", sdk.Name, "path", sdk.Path)
		if err := os.RemoveAll(sdk.Path); err != nil {
			return nil, fmt.Errorf("remove %s: %w", sdk.Path, err)
		}
	}
	return matched, nil
}

// InstallLocations returns the configured install location followed by
// the SDK directories of each search path, without duplicates.
func (m *Manager) InstallLocations() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p == "" {
			return
		}
		p = filepath.Clean(p)
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	add(m.cfg.SDK.InstallLocation)
	for _, root := range inventory.SDKRoots(m.cfg.SDK.SearchPaths, m.platform.Name) {
		add(root)
	}
	return out
}

// ModuleLocations returns the module store followed by the module
// directories of each search path, without duplicates.
func (m *Manager) ModuleLocations() []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range append([]string{m.cfg.ModuleStore()}, inventory.ModuleRoots(m.cfg.SDK.SearchPaths)...) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// SDKDetector returns a detector over InstallLocations. onChange may be nil.
func (m *Manager) SDKDetector(onChange func([]inventory.SDK)) *inventory.Detector[inventory.SDK] {
	return inventory.NewSDKDetector(m.InstallLocations(), onChange, m.logger)
}

// ModuleDetector returns a detector over ModuleLocations. onChange may be
// nil.
func (m *Manager) ModuleDetector(onChange func([]inventory.Module)) *inventory.Detector[inventory.Module] {
	return inventory.NewModuleDetector(m.ModuleLocations(), onChange, m.logger)
}

// Inventory is everything installed at one point in time.
type Inventory struct {
	SDKs    []inventory.SDK    `json:"sdks" yaml:"sdks"`
	Modules []inventory.Module `json:"modules" yaml:"modules"`
}

// Watch calls onChange with the full inventory once both detectors have
// scanned, then again after every change, until ctx is done.
func (m *Manager) Watch(ctx context.Context, onChange func(Inventory)) error {
	var (
		mu    sync.Mutex
		inv   Inventory
		ready bool
	)
	publish := func(update func(*Inventory)) {
		mu.Lock()
		defer mu.Unlock()
		update(&inv)
		if ready {
			onChange(Inventory{SDKs: slices.Clone(inv.SDKs), Modules: slices.Clone(inv.Modules)})
		}
	}

	sdks := m.SDKDetector(func(items []inventory.SDK) {
		publish(func(i *Inventory) { i.SDKs = items })
	})
	mods := m.ModuleDetector(func(items []inventory.Module) {
		publish(func(i *Inventory) { i.Modules = items })
	})

	if err := sdks.Start(ctx); err != nil {
		return fmt.Errorf("watch SDKs: %w", err)
	}
	defer sdks.Stop()
	if err := mods.Start(ctx); err != nil {
		return fmt.Errorf("watch modules: %w", err)
	}
	defer mods.Stop()

	mu.Lock()
	ready = true
	mu.Unlock()
	publish(func(*Inventory) {})

	<-ctx.Done()
	return nil
}

// Installed scans for installed SDKs.
func (m *Manager) Installed(ctx context.Context) ([]inventory.SDK, error) {
	return m.SDKDetector(nil).Scan(ctx)
}

// Modules scans for installed modules.
func (m *Manager) Modules(ctx context.Context) ([]inventory.Module, error) {
	return m.ModuleDetector(nil).Scan(ctx)
}
