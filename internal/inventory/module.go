package inventory

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/version"
)

// Module is an installed module version directory,
// <store>/<platform>/<moduleId>/<version>.
type Module struct {
	Platform string            `json:"platform" yaml:"platform"`
	ModuleID string            `json:"moduleid" yaml:"moduleid"`
	Version  string            `json:"version" yaml:"version"`
	Path     string            `json:"path" yaml:"path"`
	Manifest map[string]string `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// ClassifyModule reports whether dir holds a module: a directory with a
// readable "manifest" file of key: value lines. Platform and version come
// from the manifest when present and from the directory layout otherwise.
func ClassifyModule(dir string) (Module, bool) {
	manifest, err := readModuleManifest(filepath.Join(dir, "manifest"))
	if err != nil {
		return Module{}, false
	}

	m := Module{
		Platform: filepath.Base(filepath.Dir(filepath.Dir(dir))),
		ModuleID: filepath.Base(filepath.Dir(dir)),
		Version:  filepath.Base(dir),
		Path:     dir,
		Manifest: manifest,
	}
	if p := manifest["platform"]; p != "" {
		m.Platform = p
	}
	if m.Platform == "iphone" {
		m.Platform = "ios"
	}
	if id := manifest["moduleid"]; id != "" {
		m.ModuleID = id
	}
	if v := manifest["version"]; v != "" {
		m.Version = v
	}

	if m.Platform == "" || m.Platform == "." || m.Version == "" {
		return Module{}, false
	}
	return m, true
}

// readModuleManifest parses "key: value" lines. Blank lines and lines
// starting with # are ignored.
func readModuleManifest(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || key == "" || value == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		out[key] = value
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CompareModules orders modules by platform, id, version, then path.
func CompareModules(a, b Module) int {
	if c := strings.Compare(a.Platform, b.Platform); c != 0 {
		return c
	}
	if c := strings.Compare(a.ModuleID, b.ModuleID); c != 0 {
		return c
	}
	if c := version.Compare(a.Version, b.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Path, b.Path)
}

// ModuleRoots returns the module stores for each Titanium home:
// <home>/modules.
func ModuleRoots(homes []string) []string {
	roots := make([]string, 0, len(homes))
	for _, h := range homes {
		roots = append(roots, filepath.Join(h, "modules"))
	}
	return roots
}

// GroupModules buckets modules by platform, then module id, then version.
// When two paths hold the same version the later one in mods wins.
func GroupModules(mods []Module) map[string]map[string]map[string]Module {
	out := make(map[string]map[string]map[string]Module)
	for _, m := range mods {
		byID, ok := out[m.Platform]
		if !ok {
			byID = make(map[string]map[string]Module)
			out[m.Platform] = byID
		}
		byVersion, ok := byID[m.ModuleID]
		if !ok {
			byVersion = make(map[string]Module)
			byID[m.ModuleID] = byVersion
		}
		byVersion[m.Version] = m
	}
	return out
}
