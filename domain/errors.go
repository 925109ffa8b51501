package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrAccountNotFound     = NewError(ErrCodeNotFound, "account not found")
	ErrEventNotFound       = NewError(ErrCodeNotFound, "event not found")
	ErrContactNotFound     = NewError(ErrCodeNotFound, "contact not found")
	ErrTaskNotFound        = NewError(ErrCodeNotFound, "task not found")
	ErrAlertNotFound       = NewError(ErrCodeNotFound, "alert not found")
	ErrRuleNotFound        = NewError(ErrCodeNotFound, "playbook rule not found")
	ErrOpportunityNotFound = NewError(ErrCodeNotFound, "opportunity not found")
	ErrWorkspaceNotFound   = NewError(ErrCodeNotFound, "workspace not found")
	ErrAPIKeyNotFound      = NewError(ErrCodeNotFound, "api key not found")
	ErrMappingNotFound     = NewError(ErrCodeNotFound, "external mapping not found")
	ErrCacheMiss           = NewError(ErrCodeNotFound, "cache miss")
	ErrDuplicateEvent      = NewError(ErrCodeConflict, "event already recorded")
	ErrUnauthorized        = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
	ErrContactMismatch     = NewError(ErrCodeInvalid, "contact does not belong to account")
	ErrUnknownExternalID   = NewError(ErrCodeInvalid, "unknown account external id")
)

// ErrTemplateField reports a template placeholder that does not resolve to a known field.
func ErrTemplateField(field string) *Error {
	return NewError(ErrCodeNotFound, fmt.Sprintf("template field %q not found", field))
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
