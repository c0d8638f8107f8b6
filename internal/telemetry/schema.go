package telemetry

import (
	"encoding/json"
	"math"
)

// Snapshot is one reading of every tracked metric. It is built fresh each
// cycle and never mutated afterwards.
type Snapshot struct {
	CPUUsage     float64            `json:"cpu_usage"`
	MemoryUsed   uint64             `json:"memory_used"`
	MemoryTotal  uint64             `json:"memory_total"`
	Temperatures []TemperatureProbe `json:"temperatures"`
}

// TemperatureProbe is one sensor reading. Label and value are passed
// through from the source unchanged.
type TemperatureProbe struct {
	Label       string  `json:"label"`
	Temperature Celsius `json:"temperature"`
}

// Celsius is a sensor-reported temperature. Non-finite values (unreadable
// hardware) encode as JSON null.
type Celsius float64

func (c Celsius) MarshalJSON() ([]byte, error) {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}

	return json.Marshal(f)
}

func (c *Celsius) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Celsius(math.NaN())
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = Celsius(f)

	return nil
}

// Inventory holds static host facts, built on demand per request.
type Inventory struct {
	Host          string `json:"host"`
	OSVersion     string `json:"os_version"`
	CPUBrand      string `json:"cpu_brand"`
	PhysicalCores *uint  `json:"physical_cores"`
	TotalMemory   uint64 `json:"total_memory"`
}
