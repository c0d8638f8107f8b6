package eventbus

import "codeberg.org/mutker/hostwatch/internal/errors"

const (
	ErrNoSubscribers = errors.ErrorCode("eventbus_no_subscribers")
	ErrBusClosed     = errors.ErrorCode("eventbus_closed")
)
