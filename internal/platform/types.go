// Package platform describes the machine tisdk is installing onto.
//
// It maps the running OS to the tag Titanium uses in its feeds and archive
// layout ("osx", "linux", "win32") and works out whether the kernel is 32 or
// 64 bit, which decides which release builds are installable. Detection uses
// runtime.GOOS plus gopsutil for the kernel architecture and Linux
// distribution, and the result is injected into the Lua config as a
// read-only table.
package platform

import (
	"context"
	"fmt"
)

// Titanium OS tags.
const (
	NameOSX     = "osx"
	NameLinux   = "linux"
	NameWindows = "win32"
)

// Info contains platform detection information.
type Info struct {
	OS         string // runtime.GOOS: "linux", "darwin", "windows"
	Arch       string // runtime.GOARCH
	KernelArch string // kernel architecture as reported by the OS, e.g. "x86_64"
	Bits       int    // 32 or 64
	Name       string // Titanium OS tag: "osx", "linux", "win32"

	Distro        string // Linux only, e.g. "ubuntu"
	DistroVersion string // Linux only, e.g. "22.04"
}

// BuildType returns the release build_type value matching this machine,
// e.g. "64bit".
func (i *Info) BuildType() string {
	return fmt.Sprintf("%dbit", i.Bits)
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Is64Bit returns true on a 64-bit kernel.
func (i *Info) Is64Bit() bool {
	return i.Bits == 64
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
