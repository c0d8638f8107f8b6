package sysinfo

import (
	"context"
	"strings"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/logger"
)

const (
	UnknownHost = "unknown"
	UnknownOS   = "Unknown OS"
	UnknownCPU  = "Unknown"
)

// QueryInventory reads static host facts with the given probe. It never
// fails: every field that cannot be resolved takes its documented default.
func QueryInventory(ctx context.Context, probe Probe) Inventory {
	errFactory := errors.New()
	log := logger.Default()

	inv := Inventory{
		Host:      UnknownHost,
		OSVersion: UnknownOS,
		CPUBrand:  UnknownCPU,
	}

	if info, err := probe.HostInfo(ctx); err == nil && info != nil {
		if name := strings.TrimSpace(info.Hostname); name != "" {
			inv.Host = name
		}
		if version := longOSVersion(info.Platform, info.PlatformVersion, info.OS); version != "" {
			inv.OSVersion = version
		}
	} else {
		log.Debug().Err(errFactory.Wrap(ErrHostInfoFailed, err)).Msg("Host info unavailable")
	}

	if cpus, err := probe.CPUInfo(ctx); err == nil && len(cpus) > 0 {
		if brand := strings.TrimSpace(cpus[0].ModelName); brand != "" {
			inv.CPUBrand = brand
		}
	} else if err != nil {
		log.Debug().Err(errFactory.Wrap(ErrCPUInfoFailed, err)).Msg("CPU info unavailable")
	}

	if n, err := probe.PhysicalCores(ctx); err == nil && n > 0 {
		cores := uint(n)
		inv.PhysicalCores = &cores
	} else if err != nil {
		log.Debug().Err(errFactory.Wrap(ErrPhysicalCoresFailed, err)).Msg("Physical core count unavailable")
	}

	if vm, err := probe.VirtualMemory(ctx); err == nil && vm != nil {
		inv.TotalMemory = vm.Total
	} else {
		log.Debug().Err(errFactory.Wrap(ErrMemoryReadFailed, err)).Msg("Total memory unavailable")
	}

	return inv
}

// longOSVersion renders e.g. "Ubuntu 22.04 (linux)". Returns "" when the
// platform reports nothing usable.
func longOSVersion(platform, version, osName string) string {
	platform = strings.TrimSpace(platform)
	version = strings.TrimSpace(version)
	osName = strings.TrimSpace(osName)

	if platform == "" {
		if osName == "" {
			return ""
		}
		return strings.TrimSpace(capitalize(osName) + " " + version)
	}

	out := capitalize(platform)
	if version != "" {
		out += " " + version
	}
	if osName != "" && !strings.EqualFold(osName, platform) {
		out += " (" + osName + ")"
	}

	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
