package telemetry

import (
	"codeberg.org/mutker/hostwatch/internal/sysinfo"
	"github.com/samber/lo"
)

// BuildSnapshot turns raw readings into a Snapshot. CPU usage is the mean
// of the per-core values, or 0 when no cores were reported. Sensor readings
// are copied in order without filtering or conversion.
func BuildSnapshot(cores []float64, memory sysinfo.Memory, readings []sysinfo.SensorReading) Snapshot {
	return Snapshot{
		CPUUsage:    meanUsage(cores),
		MemoryUsed:  memory.Used,
		MemoryTotal: memory.Total,
		Temperatures: lo.Map(readings, func(r sysinfo.SensorReading, _ int) TemperatureProbe {
			return TemperatureProbe{
				Label:       r.Label,
				Temperature: Celsius(r.Temperature),
			}
		}),
	}
}

// BuildInventory converts the metrics source inventory into its wire form.
func BuildInventory(inv sysinfo.Inventory) Inventory {
	out := Inventory{
		Host:        inv.Host,
		OSVersion:   inv.OSVersion,
		CPUBrand:    inv.CPUBrand,
		TotalMemory: inv.TotalMemory,
	}
	if inv.PhysicalCores != nil {
		cores := *inv.PhysicalCores
		out.PhysicalCores = &cores
	}

	return out
}

func meanUsage(cores []float64) float64 {
	if len(cores) == 0 {
		return 0
	}

	return lo.Sum(cores) / float64(len(cores))
}
