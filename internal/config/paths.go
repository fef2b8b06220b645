package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ConfigFileName is the name of the config file inside the config dir.
const ConfigFileName = "config.lua"

// windowsVar matches %NAME% references.
var windowsVar = regexp.MustCompile(`%([A-Za-z0-9_()]+)%`)

// ExpandPath expands a leading ~, %VAR% and $VAR references, then cleans
// the result. Unset %VAR% references are left as they are.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = home + path[1:]
	}

	path = windowsVar.ReplaceAllStringFunc(path, func(m string) string {
		if v, ok := os.LookupEnv(m[1 : len(m)-1]); ok {
			return v
		}
		return m
	})
	path = os.ExpandEnv(path)

	return filepath.Clean(filepath.FromSlash(path)), nil
}

// ConfigDir returns $TISDK_CONFIG_DIR, or ~/.tisdk when it is unset.
func ConfigDir() (string, error) {
	if dir := os.Getenv("TISDK_CONFIG_DIR"); dir != "" {
		return ExpandPath(dir)
	}
	return ExpandPath("~/.tisdk")
}

// DefaultPath returns the location of config.lua in the config dir.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Expanded returns a copy of c with every path expanded.
func (c *Config) Expanded() (*Config, error) {
	out := *c
	out.SDK.SearchPaths = make([]string, 0, len(c.SDK.SearchPaths))

	var err error
	if out.SDK.InstallLocation, err = ExpandPath(c.SDK.InstallLocation); err != nil {
		return nil, err
	}
	for _, p := range c.SDK.SearchPaths {
		expanded, err := ExpandPath(p)
		if err != nil {
			return nil, err
		}
		out.SDK.SearchPaths = append(out.SDK.SearchPaths, expanded)
	}
	if out.Modules.InstallLocation, err = ExpandPath(c.Modules.InstallLocation); err != nil {
		return nil, err
	}
	if out.Downloads.Dir, err = ExpandPath(c.Downloads.Dir); err != nil {
		return nil, err
	}
	if out.Locks.Dir, err = ExpandPath(c.Locks.Dir); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModuleStore returns the directory bundled modules are installed into:
// the configured override, or <install>/../../modules.
func (c *Config) ModuleStore() string {
	if c.Modules.InstallLocation != "" {
		return c.Modules.InstallLocation
	}
	return filepath.Join(c.SDK.InstallLocation, "..", "..", "modules")
}
