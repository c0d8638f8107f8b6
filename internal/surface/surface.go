package surface

import (
	"sync"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/logger"
)

const (
	ErrSurfaceDestroyed = errors.ErrorCode("surface_destroyed")
)

// Window is a presentation surface whose pointer handling can be toggled.
type Window interface {
	SetIgnoreCursorEvents(ignore bool) error
}

// Overlay is the handle the shell registers for its presentation window.
// While passthrough is set, pointer input goes to whatever is underneath.
type Overlay struct {
	label string

	mu          sync.Mutex
	passthrough bool
	destroyed   bool
	onChange    func(bool)
}

var _ Window = (*Overlay)(nil)

// NewOverlay creates a live overlay. onChange, if set, is called whenever
// the passthrough flag actually changes, so the shell can apply it.
func NewOverlay(label string, onChange func(passthrough bool)) *Overlay {
	return &Overlay{label: label, onChange: onChange}
}

// SetIgnoreCursorEvents sets click-through. Setting the current value again
// succeeds without side effects.
func (o *Overlay) SetIgnoreCursorEvents(ignore bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.destroyed {
		return errors.New().New(ErrSurfaceDestroyed).
			WithMessage("window `" + o.label + "` not found or already destroyed")
	}
	if o.passthrough == ignore {
		return nil
	}

	o.passthrough = ignore
	logger.Debug().
		Str("window", o.label).
		Bool("passthrough", ignore).
		Msg("Click-through changed")
	if o.onChange != nil {
		o.onChange(ignore)
	}

	return nil
}

// Passthrough reports the current click-through state.
func (o *Overlay) Passthrough() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.passthrough
}

// Destroy invalidates the overlay; later setter calls fail.
func (o *Overlay) Destroy() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.destroyed = true
}
