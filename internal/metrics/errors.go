package metrics

import "codeberg.org/mutker/hostwatch/internal/errors"

const (
	ErrRegisterFailed = errors.ErrorCode("metrics_register_failed")
)
