// Package testutil provides utilities for testing tisdk in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every location tisdk derives from the environment at
// a fresh temp directory and returns it. The home directory moves too, so
// "~" in default paths never reaches the real user's Titanium install.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("TISDK_CONFIG_DIR", filepath.Join(tmpDir, "config"))
	t.Setenv("HOME", filepath.Join(tmpDir, "home"))
	t.Setenv("USERPROFILE", filepath.Join(tmpDir, "home"))
	t.Setenv("TMPDIR", filepath.Join(tmpDir, "tmp"))
	t.Setenv("TMP", filepath.Join(tmpDir, "tmp"))

	// Clear layered overrides a developer may have exported.
	for _, key := range []string{
		"TISDK_SDK_INSTALL_LOCATION",
		"TISDK_NETWORK_TIMEOUT",
		"TISDK_NETWORK_USER_AGENT",
		"TISDK_DOWNLOADS_DIR",
		"TISDK_VERBOSE",
		"TISDK_OUTPUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dirs := []string{
		filepath.Join(tmpDir, "config"),
		filepath.Join(tmpDir, "home"),
		filepath.Join(tmpDir, "tmp"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return tmpDir
}
