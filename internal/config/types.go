// Package config loads tisdk settings from a sandboxed Lua file.
//
// The file assigns a global "tisdk" table. Every field is optional: values
// that are absent keep the per-platform defaults from Default. A read-only
// "platform" table is available to the script so paths can branch on the
// running OS.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
)

// Default feed locations.
const (
	DefaultReleasesURL = "https://api.appcelerator.com/p/v1/release-list"
	DefaultBranchesURL = "https://builds.appcelerator.com/mobile/branches.json"
	DefaultBuildsURL   = "https://builds.appcelerator.com/mobile/%s/index.json"
	DefaultTimeout     = 5 * time.Minute
	DefaultUserAgent   = "tisdk"
)

// Config is the complete tisdk configuration.
type Config struct {
	SDK       SDKConfig       `json:"sdk" yaml:"sdk"`
	Modules   ModulesConfig   `json:"modules" yaml:"modules"`
	Network   NetworkConfig   `json:"network" yaml:"network"`
	Downloads DownloadsConfig `json:"downloads" yaml:"downloads"`
	Locks     LocksConfig     `json:"locks" yaml:"locks"`
}

// SDKConfig controls where SDKs are installed and looked for.
type SDKConfig struct {
	// InstallLocation is the directory SDKs are installed into, e.g.
	// ~/.titanium/mobilesdk/linux. Modules go to ../../modules relative to it.
	InstallLocation string `json:"install_location" yaml:"install_location"`

	// SearchPaths are Titanium home directories scanned for installed SDKs
	// (under mobilesdk/<os>) and modules (under modules).
	SearchPaths []string `json:"search_paths" yaml:"search_paths"`
}

// ModulesConfig overrides the module store. When InstallLocation is empty
// the store sits next to the SDK store.
type ModulesConfig struct {
	InstallLocation string `json:"install_location,omitempty" yaml:"install_location,omitempty"`
}

// NetworkConfig holds the feed URLs and HTTP client settings.
type NetworkConfig struct {
	ReleasesURL string `json:"releases_url" yaml:"releases_url"`
	BranchesURL string `json:"branches_url" yaml:"branches_url"`
	// BuildsURL contains a single %s that is replaced by the branch name.
	BuildsURL string        `json:"builds_url" yaml:"builds_url"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout"`
	UserAgent string        `json:"user_agent" yaml:"user_agent"`
}

// DownloadsConfig controls where kept archives are stored.
type DownloadsConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// LocksConfig controls where per-SDK install locks live.
type LocksConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// sdkLocations are the Titanium home directories for each OS.
var sdkLocations = map[string][]string{
	"darwin": {
		"~/Library/Application Support/Titanium",
		"/Library/Application Support/Titanium",
	},
	"linux": {
		"~/.titanium",
	},
	"windows": {
		`%ProgramData%\Titanium`,
		`%APPDATA%\Titanium`,
		`%ALLUSERSPROFILE%\Application Data\Titanium`,
	},
}

// SearchLocations returns the default Titanium home directories for info.
func SearchLocations(info *platform.Info) []string {
	return append([]string(nil), sdkLocations[info.OS]...)
}

// Default returns the configuration used when no file is present. The SDK
// install location is the first search location's mobilesdk/<os> directory.
func Default(info *platform.Info) *Config {
	search := SearchLocations(info)
	install := ""
	if len(search) > 0 {
		install = joinLocation(info, search[0], "mobilesdk", info.Name)
	}

	return &Config{
		SDK: SDKConfig{
			InstallLocation: install,
			SearchPaths:     search,
		},
		Network: NetworkConfig{
			ReleasesURL: DefaultReleasesURL,
			BranchesURL: DefaultBranchesURL,
			BuildsURL:   DefaultBuildsURL,
			Timeout:     DefaultTimeout,
			UserAgent:   DefaultUserAgent,
		},
		Downloads: DownloadsConfig{Dir: "~/.tisdk/downloads"},
		Locks:     LocksConfig{Dir: "~/.tisdk/locks"},
	}
}

// joinLocation joins unexpanded path elements with the separator of the
// target OS, so Windows defaults keep their backslashes on any host.
func joinLocation(info *platform.Info, elem ...string) string {
	sep := "/"
	if info.IsWindows() {
		sep = `\`
	}
	return strings.Join(elem, sep)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SDK.InstallLocation == "" {
		return &ValidationError{Field: "sdk.install_location", Message: "cannot be empty"}
	}
	for i, p := range c.SDK.SearchPaths {
		if p == "" {
			return &ValidationError{Field: fmt.Sprintf("sdk.search_paths[%d]", i), Message: "cannot be empty"}
		}
	}

	if err := validateFeedURL(c.Network.ReleasesURL); err != nil {
		return &ValidationError{Field: "network.releases_url", Message: err.Error()}
	}
	if err := validateFeedURL(c.Network.BranchesURL); err != nil {
		return &ValidationError{Field: "network.branches_url", Message: err.Error()}
	}
	if strings.Count(c.Network.BuildsURL, "%s") != 1 || strings.Count(c.Network.BuildsURL, "%") != 1 {
		return &ValidationError{Field: "network.builds_url", Message: "must contain exactly one %s for the branch name"}
	}
	if err := validateFeedURL(strings.Replace(c.Network.BuildsURL, "%s", "branch", 1)); err != nil {
		return &ValidationError{Field: "network.builds_url", Message: err.Error()}
	}
	if c.Network.Timeout < 0 {
		return &ValidationError{Field: "network.timeout", Message: "cannot be negative"}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

func validateFeedURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("URL must use https:// or http:// scheme (got: %s)", u.Scheme)
	}
	return nil
}
