package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

const (
	luaGlobal = "tisdk"

	maxConfigSize    = 1 << 20
	maxCallStackSize = 256
	maxRegistrySize  = 1024 * 8
)

// Parser turns a Lua config into a Config, starting from the platform
// defaults.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile parses the config at path. A missing file yields the defaults.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		info, err := p.detect(ctx)
		if err != nil {
			return nil, err
		}
		return Default(info), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua config from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	if len(luaCode) > maxConfigSize {
		return nil, &ParseError{
			Message: "config too large",
			Detail:  fmt.Sprintf("%d bytes, maximum is %d", len(luaCode), maxConfigSize),
		}
	}

	info, err := p.detect(ctx)
	if err != nil {
		return nil, err
	}

	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if err := platform.InjectPlatformTable(L, info); err != nil {
		return nil, fmt.Errorf("inject platform table: %w", err)
	}

	if err := L.DoString(luaCode); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("parse config: %w", ctx.Err())
		}
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	cfg := Default(info)
	if err := extractConfig(L, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}
	return cfg, nil
}

func (p *Parser) detect(ctx context.Context) (*platform.Info, error) {
	detector := p.detector
	if detector == nil {
		detector = platform.NewDetector()
	}
	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	return info, nil
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig overlays the global tisdk table onto cfg. A config file
// that does not assign the table keeps every default.
func extractConfig(L *lua.LState, cfg *Config) error {
	root := L.GetGlobal(luaGlobal)
	switch root.Type() {
	case lua.LTNil:
		return nil
	case lua.LTTable:
	default:
		return &ParseError{
			Message: "invalid 'tisdk' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}
	t := root.(*lua.LTable)

	if sdk, err := section(t, "sdk"); err != nil {
		return err
	} else if sdk != nil {
		if err := setString(sdk, "sdk", "install_location", &cfg.SDK.InstallLocation); err != nil {
			return err
		}
		if err := setStrings(sdk, "sdk", "search_paths", &cfg.SDK.SearchPaths); err != nil {
			return err
		}
	}

	if modules, err := section(t, "modules"); err != nil {
		return err
	} else if modules != nil {
		if err := setString(modules, "modules", "install_location", &cfg.Modules.InstallLocation); err != nil {
			return err
		}
	}

	if network, err := section(t, "network"); err != nil {
		return err
	} else if network != nil {
		for key, dst := range map[string]*string{
			"releases_url": &cfg.Network.ReleasesURL,
			"branches_url": &cfg.Network.BranchesURL,
			"builds_url":   &cfg.Network.BuildsURL,
			"user_agent":   &cfg.Network.UserAgent,
		} {
			if err := setString(network, "network", key, dst); err != nil {
				return err
			}
		}
		if v := network.RawGetString("timeout"); v != lua.LNil {
			n, ok := v.(lua.LNumber)
			if !ok {
				return fieldError("network", "timeout", "number of seconds", v)
			}
			cfg.Network.Timeout = time.Duration(float64(n) * float64(time.Second))
		}
	}

	if downloads, err := section(t, "downloads"); err != nil {
		return err
	} else if downloads != nil {
		if err := setString(downloads, "downloads", "dir", &cfg.Downloads.Dir); err != nil {
			return err
		}
	}

	if locks, err := section(t, "locks"); err != nil {
		return err
	} else if locks != nil {
		if err := setString(locks, "locks", "dir", &cfg.Locks.Dir); err != nil {
			return err
		}
	}

	return nil
}

func section(t *lua.LTable, name string) (*lua.LTable, error) {
	v := t.RawGetString(name)
	switch v := v.(type) {
	case *lua.LTable:
		return v, nil
	default:
		if v == lua.LNil {
			return nil, nil
		}
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid 'tisdk.%s'", name),
			Detail:  fmt.Sprintf("expected table, got %s", v.Type()),
		}
	}
}

func setString(t *lua.LTable, sec, key string, dst *string) error {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return nil
	}
	s, ok := v.(lua.LString)
	if !ok {
		return fieldError(sec, key, "string", v)
	}
	*dst = string(s)
	return nil
}

// setStrings reads an array of strings. nil holes left by platform.when
// are skipped.
func setStrings(t *lua.LTable, sec, key string, dst *[]string) error {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return nil
	}
	arr, ok := v.(*lua.LTable)
	if !ok {
		return fieldError(sec, key, "array of strings", v)
	}

	var out []string
	var bad lua.LValue
	arr.ForEach(func(_, item lua.LValue) {
		switch item := item.(type) {
		case lua.LString:
			out = append(out, string(item))
		default:
			if item != lua.LNil && bad == nil {
				bad = item
			}
		}
	})
	if bad != nil {
		return fieldError(sec, key, "array of strings", bad)
	}
	*dst = out
	return nil
}

func fieldError(sec, key, want string, got lua.LValue) error {
	return &ParseError{
		Message: fmt.Sprintf("invalid 'tisdk.%s.%s'", sec, key),
		Detail:  fmt.Sprintf("expected %s, got %s", want, got.Type()),
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		return err.Error()
	}
	if verbose {
		return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
	}
	detail := parseErr.Detail
	if idx := strings.Index(detail, "stack traceback"); idx > 0 {
		detail = strings.TrimSpace(detail[:idx])
	}
	return fmt.Sprintf("%s: %s", parseErr.Message, detail)
}
