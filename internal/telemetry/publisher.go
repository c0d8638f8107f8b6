package telemetry

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/logger"
)

// Publisher runs the sampling loop. It owns its MetricsSource exclusively.
type Publisher struct {
	source   MetricsSource
	emitter  Emitter
	interval time.Duration
	observer Observer
	onError  func(error)
	log      logger.Logger

	once sync.Once
	done chan struct{}
}

type PublisherOption func(*Publisher)

// WithObserver registers a hook called with every built snapshot.
func WithObserver(o Observer) PublisherOption {
	return func(p *Publisher) {
		p.observer = o
	}
}

// WithPublishErrorHook registers a hook called when an emit fails.
func WithPublishErrorHook(fn func(error)) PublisherOption {
	return func(p *Publisher) {
		p.onError = fn
	}
}

// WithPublisherLogger sets the publisher's logger.
func WithPublisherLogger(log logger.Logger) PublisherOption {
	return func(p *Publisher) {
		p.log = log
	}
}

// withInterval shortens the cadence in tests.
func withInterval(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.interval = d
	}
}

func NewPublisher(source MetricsSource, emitter Emitter, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		source:   source,
		emitter:  emitter,
		interval: Interval,
		log:      logger.Default(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start launches the sampling loop in its own goroutine and returns at once.
// Only the first call has any effect.
func (p *Publisher) Start(ctx context.Context) {
	p.once.Do(func() {
		go func() {
			defer close(p.done)
			p.Run(ctx)
		}()
	})
}

// Done is closed once a loop launched by Start has terminated.
func (p *Publisher) Done() <-chan struct{} {
	return p.done
}

// Run samples and publishes until ctx is cancelled. The first cycle runs
// immediately; later cycles follow every interval.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.Info().
		Str("topic", Topic).
		Dur("interval", p.interval).
		Msg("Telemetry publisher started")

	for {
		p.cycle(ctx)

		select {
		case <-ctx.Done():
			p.log.Info().Msg("Telemetry publisher stopped")
			return
		case <-ticker.C:
		}
	}
}

// cycle performs one refresh, build and publish. Publish failures are
// dropped; the next cycle proceeds regardless.
func (p *Publisher) cycle(ctx context.Context) {
	p.source.Refresh(ctx)
	readings := p.source.Sensors(ctx)

	snapshot := BuildSnapshot(p.source.CPUUsage(), p.source.Memory(), readings)

	if p.observer != nil {
		p.observer(snapshot)
	}

	if err := p.emitter.Emit(Topic, snapshot); err != nil {
		p.log.Debug().
			Err(errors.New().Wrap(ErrPublishFailed, err)).
			Msg("Snapshot dropped")
		if p.onError != nil {
			p.onError(err)
		}
	}
}
