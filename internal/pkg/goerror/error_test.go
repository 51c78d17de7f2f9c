package goerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shandysiswandi/mfacore/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusinessCause(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("already enabled")
	err := goerror.NewBusinessCause(sentinel, "MFA is already enabled", goerror.CodeConflict)

	require.ErrorIs(t, err, sentinel)

	ge, ok := goerror.As(fmt.Errorf("enable: %w", err))
	require.True(t, ok)
	assert.Equal(t, "MFA is already enabled", ge.Msg())
	assert.Equal(t, goerror.TypeBusiness, ge.Type())
	assert.Equal(t, goerror.CodeConflict, ge.Code())
	assert.Equal(t, 4, ge.ExitCode())
	assert.False(t, ge.Retryable())
}

func TestNewUnavailable(t *testing.T) {
	t.Parallel()

	cause := errors.New("smtp: connection refused")
	err := goerror.NewUnavailable(cause, "failed to deliver code")

	ge, ok := goerror.As(err)
	require.True(t, ok)
	assert.True(t, ge.Retryable())
	assert.Equal(t, goerror.TypeServer, ge.Type())
	assert.Equal(t, "ERROR_CODE_UNAVAILABLE", ge.Code().String())
	assert.Equal(t, 5, ge.ExitCode())
	require.ErrorIs(t, err, cause)
}

func TestNewInvalidInput(t *testing.T) {
	t.Parallel()

	err := goerror.NewInvalidInput(nil, "phone_number", "must be E.164")
	ge, ok := goerror.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"phone_number": "must be E.164"}, ge.Fields())
	assert.Equal(t, goerror.CodeInvalidInput, ge.Code())

	odd := goerror.NewInvalidInput(nil, "only_key")
	ge, ok = goerror.As(odd)
	require.True(t, ok)
	assert.Equal(t, goerror.CodeInvalidFormat, ge.Code())
}

func TestError_Messages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", goerror.NewServer(errors.New("boom")).Error())
	assert.Equal(t, "invalid verification code", goerror.NewBusiness("invalid verification code", goerror.CodeUnauthorized).Error())
	assert.Equal(t, "Invalid request body", goerror.NewInvalidFormat().Error())

	_, ok := goerror.As(errors.New("plain"))
	assert.False(t, ok)
}
