package telemetry

import "time"

const (
	// Topic is the event channel every snapshot is published on.
	Topic = "telemetry://metrics"

	// Interval is the fixed pause between sampling cycles.
	Interval = 1000 * time.Millisecond
)
