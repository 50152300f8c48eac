package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		typ  ErrorType
		code int
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("missing"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("dup"), ErrorTypeConflict, http.StatusConflict},
		{"unauthorized", NewUnauthorizedError("who"), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbiddenError("no"), ErrorTypeForbidden, http.StatusForbidden},
		{"too many", NewTooManyRequestsError("slow down"), ErrorTypeTooManyRequests, http.StatusTooManyRequests},
		{"unavailable", NewUnavailableError("store down", nil), ErrorTypeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestUnavailableErrorUnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := fmt.Errorf("failed to increment usage: %w", NewUnavailableError("usage ledger unavailable", cause))

	assert.True(t, IsUnavailableError(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsNotFoundError(err))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not_found: plan not found (gold)", NewNotFoundError("plan not found", "gold").Error())
	assert.Equal(t, "conflict: exists", NewConflictError("exists").Error())
}

func TestWithCodeDoesNotMutateOriginal(t *testing.T) {
	orig := NewForbiddenError("denied")
	changed := orig.WithCode(http.StatusNotFound)

	assert.Equal(t, http.StatusForbidden, orig.Code)
	assert.Equal(t, http.StatusNotFound, changed.Code)
	assert.Equal(t, ErrorTypeForbidden, changed.Type)
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(stderrors.New("Error 1062: Duplicate entry 'basic' for key 'name'")))
	assert.True(t, IsDuplicateError(stderrors.New("UNIQUE constraint failed: plans.name")))
	assert.True(t, IsDuplicateError(stderrors.New(`ERROR: duplicate key value violates unique constraint "plans_pkey"`)))
	assert.False(t, IsDuplicateError(stderrors.New("timeout")))
	assert.False(t, IsDuplicateError(nil))
}
