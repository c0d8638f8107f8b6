package metrics

import (
	"net/http"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/logger"
	"codeberg.org/mutker/hostwatch/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type service struct {
	registry *prometheus.Registry

	cycles          prometheus.Counter
	publishFailures prometheus.Counter
	dropped         *prometheus.CounterVec
	cpuUsage        prometheus.Gauge
	memoryUsed      prometheus.Gauge
	memoryTotal     prometheus.Gauge
	temperatures    *prometheus.GaugeVec
	subscribers     prometheus.Gauge
}

// No-op implementation
type noopRecorder struct{}

func NewService(cfg Config) (Recorder, error) {
	if !cfg.Enabled {
		logger.Debug().Msg("Metrics exposition disabled, using no-op recorder")
		return noopRecorder{}, nil
	}

	s := &service{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Sampling cycles completed",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Snapshots that could not be published",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_dropped_total",
			Help:      "Deliveries dropped because a subscriber was not keeping up",
		}, []string{"topic"}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_usage_percent",
			Help:      "Mean CPU utilization across logical cores in the latest snapshot",
		}),
		memoryUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_used_bytes",
			Help:      "Used memory in the latest snapshot",
		}),
		memoryTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_total_bytes",
			Help:      "Total memory in the latest snapshot",
		}),
		temperatures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Sensor temperatures in the latest snapshot",
		}, []string{"label"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_subscribers",
			Help:      "Presentation clients listening on the telemetry topic",
		}),
	}

	for _, c := range []prometheus.Collector{
		s.cycles, s.publishFailures, s.dropped,
		s.cpuUsage, s.memoryUsed, s.memoryTotal, s.temperatures, s.subscribers,
		collectors.NewGoCollector(),
	} {
		if err := s.registry.Register(c); err != nil {
			return nil, errors.New().Wrap(ErrRegisterFailed, err)
		}
	}

	logger.Debug().Msg("Metrics service initialized successfully")

	return s, nil
}

// ObserveSnapshot mirrors the latest snapshot. Sensor gauges are rebuilt
// every cycle so vanished sensors disappear.
func (s *service) ObserveSnapshot(snapshot telemetry.Snapshot) {
	s.cycles.Inc()
	s.cpuUsage.Set(snapshot.CPUUsage)
	s.memoryUsed.Set(float64(snapshot.MemoryUsed))
	s.memoryTotal.Set(float64(snapshot.MemoryTotal))

	s.temperatures.Reset()
	for _, probe := range snapshot.Temperatures {
		s.temperatures.WithLabelValues(probe.Label).Set(float64(probe.Temperature))
	}
}

func (s *service) PublishFailed(error) {
	s.publishFailures.Inc()
}

func (s *service) DeliveryDropped(topic string) {
	s.dropped.WithLabelValues(topic).Inc()
}

func (s *service) SetSubscribers(n int) {
	s.subscribers.Set(float64(n))
}

func (s *service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

func (noopRecorder) ObserveSnapshot(telemetry.Snapshot) {}

func (noopRecorder) PublishFailed(error) {}

func (noopRecorder) DeliveryDropped(string) {}

func (noopRecorder) SetSubscribers(int) {}

func (noopRecorder) Handler() http.Handler {
	return http.NotFoundHandler()
}
