package commands

import "codeberg.org/mutker/hostwatch/internal/errors"

const (
	ErrUnknownCommand   = errors.ErrorCode("command_unknown")
	ErrInvalidArguments = errors.ErrorCode("command_invalid_arguments")
	ErrCommandFailed    = errors.ErrorCode("command_failed")
)
