package sysinfo

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"
)

// Memory is a used/total pair in bytes.
type Memory struct {
	Used  uint64
	Total uint64
}

// SensorReading is one raw thermal sensor value as reported by the OS.
type SensorReading struct {
	Label       string
	Temperature float64
}

// Inventory holds static host facts. PhysicalCores is nil when the
// platform cannot report it.
type Inventory struct {
	Host          string
	OSVersion     string
	CPUBrand      string
	PhysicalCores *uint
	TotalMemory   uint64
}

// SensorProvider contributes additional thermal readings, listed after the
// OS sensors on every enumeration.
type SensorProvider interface {
	Temperatures(ctx context.Context) []SensorReading
}

// Probe bundles the OS readers used by Source and QueryInventory. Every
// field is required; SystemProbe wires them to gopsutil.
type Probe struct {
	CPUTimes      func(ctx context.Context) ([]cpu.TimesStat, error)
	VirtualMemory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	Temperatures  func(ctx context.Context) ([]sensors.TemperatureStat, error)
	HostInfo      func(ctx context.Context) (*host.InfoStat, error)
	CPUInfo       func(ctx context.Context) ([]cpu.InfoStat, error)
	PhysicalCores func(ctx context.Context) (int, error)
}

// SystemProbe returns a Probe reading the local host through gopsutil.
func SystemProbe() Probe {
	return Probe{
		CPUTimes: func(ctx context.Context) ([]cpu.TimesStat, error) {
			return cpu.TimesWithContext(ctx, true)
		},
		VirtualMemory: mem.VirtualMemoryWithContext,
		Temperatures:  sensors.TemperaturesWithContext,
		HostInfo:      host.InfoWithContext,
		CPUInfo:       cpu.InfoWithContext,
		PhysicalCores: func(ctx context.Context) (int, error) {
			return cpu.CountsWithContext(ctx, false)
		},
	}
}
