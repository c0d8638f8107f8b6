package server

import "codeberg.org/mutker/hostwatch/internal/errors"

const (
	ErrUpgradeFailed = errors.ErrorCode("server_upgrade_failed")
	ErrWriteFailed   = errors.ErrorCode("server_write_failed")
	ErrBodyTooLarge  = errors.ErrorCode("server_body_too_large")
)
