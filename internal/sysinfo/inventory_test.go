package sysinfo

import (
	"context"
	"testing"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryInventory(t *testing.T) {
	inv := QueryInventory(context.Background(), fakeProbe(8, 1, 1))

	assert.Equal(t, "workstation", inv.Host)
	assert.Equal(t, "Ubuntu 24.04 (linux)", inv.OSVersion)
	assert.Equal(t, "AMD Ryzen 7 7840U", inv.CPUBrand)
	require.NotNil(t, inv.PhysicalCores)
	assert.Equal(t, uint(8), *inv.PhysicalCores)
	assert.Equal(t, uint64(16<<30), inv.TotalMemory)
}

func TestQueryInventoryFallbacks(t *testing.T) {
	probe := fakeProbe(1, 1, 1)
	probe.HostInfo = func(context.Context) (*host.InfoStat, error) { return nil, errUnavailable }
	probe.CPUInfo = func(context.Context) ([]cpu.InfoStat, error) { return nil, nil }
	probe.PhysicalCores = func(context.Context) (int, error) { return 0, errUnavailable }
	probe.VirtualMemory = func(context.Context) (*mem.VirtualMemoryStat, error) { return nil, errUnavailable }

	inv := QueryInventory(context.Background(), probe)

	assert.Equal(t, UnknownHost, inv.Host)
	assert.Equal(t, "unknown", inv.Host)
	assert.Equal(t, "Unknown OS", inv.OSVersion)
	assert.Equal(t, "Unknown", inv.CPUBrand)
	assert.Nil(t, inv.PhysicalCores)
	assert.Zero(t, inv.TotalMemory)
}

func TestQueryInventoryBlankFieldsFallBack(t *testing.T) {
	probe := fakeProbe(1, 1, 1)
	probe.HostInfo = func(context.Context) (*host.InfoStat, error) { return &host.InfoStat{Hostname: "  "}, nil }
	probe.CPUInfo = func(context.Context) ([]cpu.InfoStat, error) { return []cpu.InfoStat{{ModelName: ""}}, nil }
	probe.PhysicalCores = func(context.Context) (int, error) { return 0, nil }

	inv := QueryInventory(context.Background(), probe)

	assert.Equal(t, UnknownHost, inv.Host)
	assert.Equal(t, UnknownOS, inv.OSVersion)
	assert.Equal(t, UnknownCPU, inv.CPUBrand)
	assert.Nil(t, inv.PhysicalCores)
}

func TestQueryInventoryIsIdempotent(t *testing.T) {
	probe := fakeProbe(4, 1, 1)

	first := QueryInventory(context.Background(), probe)
	second := QueryInventory(context.Background(), probe)

	assert.Equal(t, first, second)
}

func TestLongOSVersion(t *testing.T) {
	assert.Equal(t, "Darwin 14.4", longOSVersion("darwin", "14.4", "darwin"))
	assert.Equal(t, "Microsoft Windows 11 Pro 10.0.22631 (windows)",
		longOSVersion("Microsoft Windows 11 Pro", "10.0.22631", "windows"))
	assert.Equal(t, "Linux", longOSVersion("", "", "linux"))
	assert.Equal(t, "", longOSVersion("", "", ""))
}
