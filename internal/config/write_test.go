package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/tisdk/internal/platform"
)

func TestWriteFile(t *testing.T) {
	detector := platform.NewStatic(platform.Info{OS: "linux", Arch: "amd64"})
	info, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "nested", "config")
	path := filepath.Join(dir, ConfigFileName)

	cfg := Default(info)
	cfg.SDK.InstallLocation = "/opt/titanium/mobilesdk/linux"
	if err := WriteFile(path, cfg); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Overwriting replaces the file in place.
	cfg.Downloads.Dir = "/var/cache/tisdk"
	if err := WriteFile(path, cfg); err != nil {
		t.Fatalf("WriteFile() second write error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only %s in %s, found %d entries", ConfigFileName, dir, len(entries))
	}

	got, err := NewParser(detector).ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if got.SDK.InstallLocation != cfg.SDK.InstallLocation {
		t.Errorf("InstallLocation = %q, want %q", got.SDK.InstallLocation, cfg.SDK.InstallLocation)
	}
	if got.Downloads.Dir != "/var/cache/tisdk" {
		t.Errorf("Downloads.Dir = %q, want /var/cache/tisdk", got.Downloads.Dir)
	}
}
