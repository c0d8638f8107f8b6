package metrics

import (
	"net/http"

	"codeberg.org/mutker/hostwatch/internal/telemetry"
)

// Recorder receives publisher and bus events. The no-op recorder is used
// when exposition is disabled.
type Recorder interface {
	ObserveSnapshot(snapshot telemetry.Snapshot)
	PublishFailed(err error)
	DeliveryDropped(topic string)
	SetSubscribers(n int)
	Handler() http.Handler
}
