package config

import (
	"testing"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		name        string
		info        platform.Info
		wantInstall string
		wantSearch  int
	}{
		{"linux", platform.Info{OS: "linux", Name: "linux"}, "~/.titanium/mobilesdk/linux", 1},
		{"darwin", platform.Info{OS: "darwin", Name: "osx"}, "~/Library/Application Support/Titanium/mobilesdk/osx", 2},
		{"windows", platform.Info{OS: "windows", Name: "win32"}, `%ProgramData%\Titanium\mobilesdk\win32`, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(&tt.info)
			if cfg.SDK.InstallLocation != tt.wantInstall {
				t.Errorf("InstallLocation = %q, want %q", cfg.SDK.InstallLocation, tt.wantInstall)
			}
			if len(cfg.SDK.SearchPaths) != tt.wantSearch {
				t.Errorf("SearchPaths = %v, want %d entries", cfg.SDK.SearchPaths, tt.wantSearch)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestSearchLocationsIsACopy(t *testing.T) {
	info := &platform.Info{OS: "linux"}
	locs := SearchLocations(info)
	locs[0] = "changed"
	if SearchLocations(info)[0] != "~/.titanium" {
		t.Error("SearchLocations returned shared slice")
	}
}

func TestValidate(t *testing.T) {
	info := &platform.Info{OS: "linux", Name: "linux"}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantField string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty search path", func(c *Config) { c.SDK.SearchPaths = []string{""} }, "sdk.search_paths[0]"},
		{"empty branches url", func(c *Config) { c.Network.BranchesURL = "" }, "network.branches_url"},
		{"two placeholders", func(c *Config) { c.Network.BuildsURL = "https://x/%s/%s" }, "network.builds_url"},
		{"other verb", func(c *Config) { c.Network.BuildsURL = "https://x/%d/%s" }, "network.builds_url"},
		{"negative timeout", func(c *Config) { c.Network.Timeout = -1 }, "network.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(info)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
