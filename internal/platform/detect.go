package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect performs platform detection and returns platform information.
//
// Bitness comes from the kernel architecture reported by gopsutil, so a
// 32-bit binary on a 64-bit kernel still installs 64-bit SDKs. If the kernel
// architecture cannot be read, GOARCH is used instead. Distribution details
// are best effort and left empty when gopsutil cannot read them.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	name, err := osName(runtime.GOOS)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		Name: name,
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("platform detection cancelled: %w", err)
	}
	kernelArch, err := host.KernelArch()
	if err != nil || kernelArch == "" {
		kernelArch = runtime.GOARCH
	}
	info.KernelArch = kernelArch
	info.Bits = bitsFromArch(kernelArch)

	if info.IsLinux() {
		distro, _, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			return info, nil
		}
		info.Distro = normalizeDistro(distro)
		info.DistroVersion = normalizeDistro(version)
	}

	return info, nil
}

// StaticDetector returns a fixed Info. Used by tests and by callers that
// need to install for a platform other than the running one.
type StaticDetector struct {
	Info Info
}

// NewStatic returns a Detector that always reports info.
func NewStatic(info Info) Detector {
	if info.Name == "" {
		info.Name, _ = osName(info.OS)
	}
	if info.Bits == 0 {
		info.Bits = bitsFromArch(info.Arch)
	}
	return &StaticDetector{Info: info}
}

// Detect returns a copy of the configured Info.
func (s *StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info := s.Info
	return &info, nil
}
