package commands

import (
	"bytes"
	"context"
	"encoding/json"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/surface"
	"codeberg.org/mutker/hostwatch/internal/sysinfo"
	"codeberg.org/mutker/hostwatch/internal/telemetry"
)

const (
	GetSpecs        = "get_specs"
	SetClickThrough = "set_click_through"
)

// Service answers the presentation layer's one-shot requests. It shares no
// state with the sampling loop.
type Service struct {
	window   surface.Window
	newProbe func() sysinfo.Probe
}

type Option func(*Service)

// WithProbeFactory replaces the probe built for every inventory query.
func WithProbeFactory(fn func() sysinfo.Probe) Option {
	return func(s *Service) {
		s.newProbe = fn
	}
}

func NewService(window surface.Window, opts ...Option) *Service {
	s := &Service{
		window:   window,
		newProbe: sysinfo.SystemProbe,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetSpecs queries the host from scratch on every call. It always succeeds;
// missing fields carry their defaults.
func (s *Service) GetSpecs(ctx context.Context) telemetry.Inventory {
	return telemetry.BuildInventory(sysinfo.QueryInventory(ctx, s.newProbe()))
}

// SetClickThrough toggles pointer passthrough on the presentation window.
// The returned error's text is the diagnostic shown to the caller.
func (s *Service) SetClickThrough(passthrough bool) error {
	if s.window == nil {
		return errors.New().New(surface.ErrSurfaceDestroyed).WithMessage("no presentation window")
	}

	return s.window.SetIgnoreCursorEvents(passthrough)
}

type clickThroughArgs struct {
	Passthrough *bool `json:"passthrough"`
}

// Invoke dispatches a named command with JSON arguments.
func (s *Service) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	errFactory := errors.New()

	switch name {
	case GetSpecs:
		return s.GetSpecs(ctx), nil

	case SetClickThrough:
		var in clickThroughArgs
		if len(bytes.TrimSpace(args)) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, errFactory.Wrap(ErrInvalidArguments, err)
			}
		}
		if in.Passthrough == nil {
			return nil, errFactory.WithData(ErrInvalidArguments, "missing field `passthrough`")
		}
		if err := s.SetClickThrough(*in.Passthrough); err != nil {
			return nil, errFactory.Wrap(ErrCommandFailed, err)
		}
		return nil, nil

	default:
		return nil, errFactory.WithData(ErrUnknownCommand, name)
	}
}
