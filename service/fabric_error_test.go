package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFabricError(t *testing.T) {
	inner := errors.New("underlying")
	e := NewFabricError(ErrBadParameter, "invalid input", inner)
	require.NotNil(t, e)
	assert.Equal(t, ErrBadParameter, e.Code)
	assert.Equal(t, "invalid input", e.Message)
	assert.Same(t, inner, e.Inner)
	assert.ErrorIs(t, e, inner)
	assert.Equal(t, "bad_parameter invalid input: underlying", e.Error())
}

func TestNewInternalServerError_KeepsClassifiedInner(t *testing.T) {
	notFound := NewEntityNotFoundError("gone", nil)
	e := NewInternalServerError("lookup failed", fmt.Errorf("wrap: %w", notFound))
	assert.Same(t, notFound, e)

	plain := NewInternalServerError("db failed", assert.AnError)
	assert.Equal(t, ErrInternalServerError, plain.Code)
	assert.Equal(t, "db failed", plain.Message)
}

func TestRouterErrorsAlwaysUseOwnCode(t *testing.T) {
	inner := NewEntityNotFoundError("no instances", nil)

	tests := []struct {
		name string
		err  *FabricError
		is   func(error) bool
		code string
	}{
		{"service_not_found", NewServiceNotFoundError("orders", inner), IsServiceNotFoundError, ErrServiceNotFound},
		{"service_unavailable", NewServiceUnavailableError("orders", inner), IsServiceUnavailableError, ErrServiceUnavailable},
		{"saga_failed", NewSagaFailedError("create order", inner), IsSagaFailedError, ErrSagaFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.True(t, tt.is(tt.err))
			assert.False(t, IsEntityNotFoundError(tt.err))
		})
	}
}

func TestToFabricError(t *testing.T) {
	e := NewBadParameterError("bad", nil)
	assert.Same(t, e, ToFabricError(e))
	assert.Same(t, e, ToFabricError(fmt.Errorf("ctx: %w", e)))
	assert.Nil(t, ToFabricError(errors.New("plain")))
	assert.Equal(t, "", ToFabricErrorCode(errors.New("plain")))
	assert.False(t, IsFabricError(errors.New("plain"), ""))
}

func TestIsErrorHelpers(t *testing.T) {
	assert.True(t, IsEntityNotFoundError(NewEntityNotFoundError("gone", nil)))
	assert.True(t, IsBadParameterError(NewBadParameterError("bad", nil)))
	assert.True(t, IsInternalServerError(NewInternalServerError("oops", nil)))
	assert.False(t, IsInternalServerError(NewBadParameterError("bad", nil)))
}
