package telemetry

import (
	"context"

	"codeberg.org/mutker/hostwatch/internal/sysinfo"
)

// MetricsSource is the sampling handle the publisher drives. Refresh
// re-samples CPU and memory incrementally; Sensors re-lists thermal sensors.
type MetricsSource interface {
	Refresh(ctx context.Context)
	CPUUsage() []float64
	Memory() sysinfo.Memory
	Sensors(ctx context.Context) []sysinfo.SensorReading
}

// Emitter delivers a payload to every listener of a topic. Delivery is
// best-effort; an error means the event was lost.
type Emitter interface {
	Emit(topic string, payload any) error
}

// Observer sees every snapshot after it is built.
type Observer func(Snapshot)

var _ MetricsSource = (*sysinfo.Source)(nil)
