package telemetry

import "codeberg.org/mutker/hostwatch/internal/errors"

const (
	// Publisher Errors
	ErrPublishFailed = errors.ErrorCode("telemetry_publish_failed")
)
