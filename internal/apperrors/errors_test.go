package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StatusByKind(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindConversion, http.StatusInternalServerError},
		{KindProvider, http.StatusInternalServerError},
		{KindProviderResponse, http.StatusInternalServerError},
		{KindBusy, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
		{Kind("Unknown"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := New(tc.kind, "msg")
			assert.Equal(t, tc.status, err.HTTPStatus)
			assert.Equal(t, tc.kind, err.Kind)
		})
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Conversion("conversion failed")
	assert.Equal(t, "ConversionError: conversion failed", err.Error())

	err = err.WithCause(errors.New("exit status 1"))
	assert.Equal(t, "ConversionError: conversion failed (cause: exit status 1)", err.Error())
}

func TestAppError_UnwrapAndAs(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("transcribe: %w", Provider("Deepgram transcription failed").WithCause(cause))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, KindProvider, appErr.Kind)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsKind(err, KindProvider))
	assert.False(t, IsKind(err, KindValidation))
}

func TestAppError_IsMatchesKind(t *testing.T) {
	err := Validation("No audio file uploaded")
	assert.ErrorIs(t, err, Validation(""))
	assert.NotErrorIs(t, err, ProviderResponse(""))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("bad")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(fmt.Errorf("wrapped: %w", Busy("busy"))))
}

func TestInternal_HidesCause(t *testing.T) {
	err := Internal(errors.New("open /tmp/x: permission denied"))
	assert.Equal(t, "Internal server error", err.Message)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.NotNil(t, err.Cause)
}

func TestWithDetail(t *testing.T) {
	err := Validation("bad").WithDetail("ext", ".ogg")
	assert.Equal(t, ".ogg", err.Details["ext"])
}
