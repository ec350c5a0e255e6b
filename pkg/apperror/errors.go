package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger (LDG) ----

func ErrInsufficientBalance() *AppError {
	return New("LDG_001", "Insufficient wallet balance", http.StatusPaymentRequired)
}

func ErrValidation(message string) *AppError {
	return New("LDG_002", message, http.StatusBadRequest)
}

func ErrNotFound(entity string) *AppError {
	return New("LDG_003", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrFrozenWallet() *AppError {
	return New("LDG_004", "Wallet is frozen; debits are rejected", http.StatusForbidden)
}

func ErrAlreadyReversed() *AppError {
	return New("LDG_005", "Transaction already has a reversal", http.StatusConflict)
}

// ---- Approval workflow (APR) ----

func ErrUnauthorizedActor(required string) *AppError {
	return New("APR_001", fmt.Sprintf("Actor role %s required for this stage", required), http.StatusForbidden)
}

func ErrInvalidTransition(message string) *AppError {
	return New("APR_002", message, http.StatusConflict)
}

func ErrDisbursementFailure(err error) *AppError {
	return Wrap("APR_003", "Disbursement failed; approval not advanced", http.StatusUnprocessableEntity, err)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
