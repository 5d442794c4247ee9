package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Reason  string    `json:"reason"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrForbidden
	ErrConflict
	ErrStorage
)

// Reasons carried by AppError. Callers switch on these rather than on messages.
const (
	ReasonMissingField       = "MissingField"
	ReasonInvalidRole        = "InvalidRole"
	ReasonInvalidAge         = "InvalidAge"
	ReasonInvalidTime        = "InvalidTime"
	ReasonInvalidDate        = "InvalidDate"
	ReasonInvalidRange       = "InvalidRange"
	ReasonOutOfRange         = "OutOfRange"
	ReasonInvalidPrice       = "InvalidPrice"
	ReasonInvalidCode        = "InvalidCode"
	ReasonInvalidID          = "InvalidID"
	ReasonNoUpdates          = "NoUpdates"
	ReasonDuplicateEmail     = "DuplicateEmail"
	ReasonProfileExists      = "ProfileExists"
	ReasonDuplicateCode      = "DuplicateCode"
	ReasonAlreadyLinked      = "AlreadyLinked"
	ReasonUserNotFound       = "UserNotFound"
	ReasonPatientNotFound    = "PatientNotFound"
	ReasonGuardianNotFound   = "GuardianNotFound"
	ReasonPharmacyNotFound   = "PharmacyNotFound"
	ReasonNotFound           = "NotFound"
	ReasonInvalidCredentials = "InvalidCredentials"
	ReasonStorage            = "StorageError"
)

// Validation reports malformed, missing or out-of-range input.
func Validation(reason, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Reason:  reason,
		Message: message,
	}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(resource, reason string) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Reason:  reason,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Conflict reports a uniqueness violation.
func Conflict(reason, message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}

// Storage wraps an underlying database failure, keeping the cause for diagnostics.
func Storage(err error) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Reason:  ReasonStorage,
		Message: "storage failure",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Reason:  ReasonInvalidCredentials,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Reason:  "Forbidden",
		Message: message,
	}
}

// As extracts an AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HasReason reports whether err is an AppError with the given reason.
func HasReason(err error, reason string) bool {
	appErr, ok := As(err)
	return ok && appErr.Reason == reason
}
