package sysinfo

import (
	"context"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/logger"
	"github.com/shirou/gopsutil/v4/cpu"
)

// Source is a long-lived sampling handle. It keeps the previous per-core CPU
// times so each Refresh yields utilization since the last one. A Source is
// not safe for concurrent use; give every concurrent caller its own.
type Source struct {
	probe     Probe
	providers []SensorProvider
	log       logger.Logger

	prevTimes []cpu.TimesStat
	usage     []float64
	memory    Memory
}

type Option func(*Source)

// WithProbe replaces the gopsutil readers.
func WithProbe(p Probe) Option {
	return func(s *Source) {
		s.probe = p
	}
}

// WithSensorProviders appends extra thermal sources to every enumeration.
func WithSensorProviders(providers ...SensorProvider) Option {
	return func(s *Source) {
		s.providers = append(s.providers, providers...)
	}
}

// WithLogger sets the logger used for data-unavailable diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(s *Source) {
		s.log = log
	}
}

// NewSource creates a handle and records the CPU baseline.
func NewSource(ctx context.Context, opts ...Option) *Source {
	s := &Source{
		probe: SystemProbe(),
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if times, err := s.probe.CPUTimes(ctx); err == nil {
		s.prevTimes = times
	} else {
		s.debug(errors.New().Wrap(ErrCPUTimesFailed, err), "baseline")
	}

	return s
}

// Refresh re-samples per-core CPU utilization and memory counters.
func (s *Source) Refresh(ctx context.Context) {
	s.refreshCPU(ctx)
	s.refreshMemory(ctx)
}

func (s *Source) refreshCPU(ctx context.Context) {
	times, err := s.probe.CPUTimes(ctx)
	if err != nil {
		s.debug(errors.New().Wrap(ErrCPUTimesFailed, err), "refresh_cpu")
		s.usage = nil
		return
	}

	if len(s.prevTimes) != 0 && len(times) != len(s.prevTimes) {
		s.debug(errors.New().WithData(ErrCoreCountChanged, struct {
			Previous int
			Current  int
		}{
			Previous: len(s.prevTimes),
			Current:  len(times),
		}), "refresh_cpu")
	}

	usage := make([]float64, len(times))
	for i, t := range times {
		if i < len(s.prevTimes) {
			usage[i] = busyPercent(s.prevTimes[i], t)
		}
	}

	s.prevTimes = times
	s.usage = usage
}

func (s *Source) refreshMemory(ctx context.Context) {
	vm, err := s.probe.VirtualMemory(ctx)
	if err != nil || vm == nil {
		s.debug(errors.New().Wrap(ErrMemoryReadFailed, err), "refresh_memory")
		s.memory = Memory{}
		return
	}

	s.memory = memoryFrom(vm.Total, vm.Available)
}

// CPUUsage returns per-core utilization in percent (0-100) as of the last
// Refresh. The first Refresh measures against the baseline taken in
// NewSource.
func (s *Source) CPUUsage() []float64 {
	out := make([]float64, len(s.usage))
	copy(out, s.usage)
	return out
}

// Memory returns the memory counters as of the last Refresh.
func (s *Source) Memory() Memory {
	return s.memory
}

// Sensors lists every thermal sensor afresh, OS sensors first in
// enumeration order, then each provider's readings.
func (s *Source) Sensors(ctx context.Context) []SensorReading {
	readings := make([]SensorReading, 0)

	// gopsutil returns partial results alongside warnings on some platforms.
	temps, err := s.probe.Temperatures(ctx)
	if err != nil {
		s.debug(errors.New().Wrap(ErrSensorsListFailed, err), "sensors")
	}
	for _, t := range temps {
		readings = append(readings, SensorReading{
			Label:       t.SensorKey,
			Temperature: t.Temperature,
		})
	}

	for _, p := range s.providers {
		readings = append(readings, p.Temperatures(ctx)...)
	}

	return readings
}

func (s *Source) debug(err errors.Error, operation string) {
	s.log.Debug().
		Str("error_code", string(err.Code())).
		Str("operation", operation).
		Err(err).
		Msg("Metric unavailable, using default")
}

func busyPercent(prev, cur cpu.TimesStat) float64 {
	prevBusy, prevTotal := busyTotal(prev)
	curBusy, curTotal := busyTotal(cur)

	if curTotal <= prevTotal {
		return 0
	}
	if curBusy <= prevBusy {
		return 0
	}

	pct := (curBusy - prevBusy) / (curTotal - prevTotal) * 100
	if pct > 100 {
		return 100
	}

	return pct
}

func busyTotal(t cpu.TimesStat) (busy, total float64) {
	total = t.User + t.System + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal + t.Idle
	busy = total - t.Idle - t.Iowait

	return busy, total
}

func memoryFrom(total, available uint64) Memory {
	if available > total {
		return Memory{Used: 0, Total: total}
	}

	return Memory{Used: total - available, Total: total}
}
