package errors_test

import (
	"fmt"
	"testing"

	"codeberg.org/mutker/hostwatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryNewUsesDefaultMessage(t *testing.T) {
	err := errors.New().New(errors.ErrInvalidLogLevel)

	assert.Equal(t, errors.ErrInvalidLogLevel, err.Code())
	assert.Equal(t, "Invalid log level", err.Error())
}

func TestFactoryWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := errors.New().Wrap(errors.ErrReadConfig, cause)

	assert.Equal(t, "Failed to read config file: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestWithDataRendersData(t *testing.T) {
	err := errors.New().WithData(errors.ErrInvalidListen, "nope:")

	assert.Equal(t, "Invalid listen address: nope:", err.Error())
	assert.Equal(t, "nope:", err.GetData())
}

func TestWithMessageOverridesText(t *testing.T) {
	err := errors.New().New(errors.ErrOperationFailed).WithMessage("surface gone")

	assert.Equal(t, "surface gone", err.Error())
	assert.Equal(t, errors.ErrOperationFailed, err.Code())
}

func TestUnknownCodeFallsBackToCodeString(t *testing.T) {
	assert.Equal(t, "custom_code", errors.GetErrorMessage("custom_code"))
}

func TestCodeOf(t *testing.T) {
	inner := errors.New().New(errors.ErrAlreadyRunning)
	wrapped := fmt.Errorf("starting: %w", inner)

	assert.Equal(t, errors.ErrAlreadyRunning, errors.CodeOf(wrapped))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(fmt.Errorf("plain")))
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := errors.New().New(errors.ErrInvalidLogLevel)
	outer := errors.New().Wrap(errors.ErrInvalidConfig, inner)

	require.True(t, errors.HasCode(outer, errors.ErrInvalidConfig))
	assert.True(t, errors.HasCode(outer, errors.ErrInvalidLogLevel))
	assert.False(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(nil, errors.ErrTimeout))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("ctx: %w", errors.New().WithData(errors.ErrAlreadyRunning, 42))

	assert.ErrorIs(t, err, errors.New().New(errors.ErrAlreadyRunning))
	assert.NotErrorIs(t, err, errors.New().New(errors.ErrTimeout))
}

func TestWithMessageLeavesOriginal(t *testing.T) {
	base := errors.New().New(errors.ErrTimeout)
	_ = base.WithMessage("slow")

	assert.Equal(t, "Operation timed out", base.Error())
}
