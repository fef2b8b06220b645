package platform

import (
	"fmt"
	"strings"
)

// osNames maps GOOS to the Titanium OS tag.
var osNames = map[string]string{
	"darwin":  NameOSX,
	"linux":   NameLinux,
	"windows": NameWindows,
}

// osName returns the Titanium OS tag for goos.
func osName(goos string) (string, error) {
	if name, ok := osNames[goos]; ok {
		return name, nil
	}
	return "", fmt.Errorf("unsupported operating system: %s", goos)
}

// bitsFromArch returns 64 for 64-bit architecture names (both GOARCH and
// kernel spellings) and 32 otherwise.
func bitsFromArch(arch string) int {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch {
	case strings.Contains(arch, "64"):
		return 64
	case arch == "s390x", arch == "loong64":
		return 64
	default:
		return 32
	}
}

// normalizeDistro lowercases and trims distro identifiers from gopsutil.
func normalizeDistro(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
