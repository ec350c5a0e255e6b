package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LDG_001", "Insufficient wallet balance", http.StatusPaymentRequired),
			expected: "[LDG_001] Insufficient wallet balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("LDG_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestLedgerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InsufficientBalance", ErrInsufficientBalance(), "LDG_001", 402},
		{"Validation", ErrValidation("bad input"), "LDG_002", 400},
		{"NotFound", ErrNotFound("wallet"), "LDG_003", 404},
		{"FrozenWallet", ErrFrozenWallet(), "LDG_004", 403},
		{"AlreadyReversed", ErrAlreadyReversed(), "LDG_005", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestApprovalErrors(t *testing.T) {
	unauthorized := ErrUnauthorizedActor("FINANCE")
	assert.Equal(t, "APR_001", unauthorized.Code)
	assert.Equal(t, 403, unauthorized.HTTPStatus)
	assert.Contains(t, unauthorized.Message, "FINANCE")

	transition := ErrInvalidTransition("request is terminal")
	assert.Equal(t, "APR_002", transition.Code)
	assert.Equal(t, 409, transition.HTTPStatus)

	inner := fmt.Errorf("ledger rejected debit")
	disbursement := ErrDisbursementFailure(inner)
	assert.Equal(t, "APR_003", disbursement.Code)
	assert.Equal(t, 422, disbursement.HTTPStatus)
	assert.True(t, errors.Is(disbursement, inner))
}

func TestAuthErrors(t *testing.T) {
	err := ErrInvalidToken()
	assert.Equal(t, "AUTH_001", err.Code)
	assert.Equal(t, 401, err.HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	sysErr := InternalError(inner)
	assert.Equal(t, "SYS_001", sysErr.Code)
	assert.Equal(t, 500, sysErr.HTTPStatus)
	assert.True(t, errors.Is(sysErr, inner))
}

func TestNotFoundEntity(t *testing.T) {
	err := ErrNotFound("dispute")
	assert.Contains(t, err.Message, "dispute")
	assert.Equal(t, "LDG_003", err.Code)
}
