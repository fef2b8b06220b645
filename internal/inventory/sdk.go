// Package inventory discovers installed SDKs and modules on disk and keeps
// the list current while the install directories change.
package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/version"
)

// SDKManifest is the subset of an SDK's manifest.json tisdk reads.
type SDKManifest struct {
	Name      string   `json:"name" yaml:"name"`
	Version   string   `json:"version" yaml:"version"`
	Timestamp string   `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	GitHash   string   `json:"githash,omitempty" yaml:"githash,omitempty"`
	Platforms []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
}

// SDK is an installed SDK directory.
type SDK struct {
	// Name is the directory name, e.g. "7.0.0.GA".
	Name     string      `json:"name" yaml:"name"`
	Path     string      `json:"path" yaml:"path"`
	Manifest SDKManifest `json:"manifest" yaml:"manifest"`
}

// ClassifySDK reports whether dir holds an SDK: a directory with a
// manifest.json that decodes to an object.
func ClassifySDK(dir string) (SDK, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return SDK{}, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return SDK{}, false
	}
	var m SDKManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return SDK{}, false
	}

	return SDK{Name: filepath.Base(dir), Path: dir, Manifest: m}, true
}

// CompareSDKs orders SDKs by manifest version, then by path.
func CompareSDKs(a, b SDK) int {
	if c := version.Compare(a.Manifest.Version, b.Manifest.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Path, b.Path)
}

// SDKRoots returns the directories holding SDKs for each Titanium home:
// <home>/mobilesdk/<osName>.
func SDKRoots(homes []string, osName string) []string {
	roots := make([]string, 0, len(homes))
	for _, h := range homes {
		roots = append(roots, filepath.Join(h, "mobilesdk", osName))
	}
	return roots
}
