package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a business error for transport mapping. Infrastructure
// failures (cache, FX provider) never take this form: they are degraded to
// fallback values inside the owning component.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindForbidden  ErrorKind = "FORBIDDEN"
	KindValidation ErrorKind = "VALIDATION"
)

// Stable machine-readable codes carried by validation errors.
const (
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInvalidAmount           = "INVALID_AMOUNT"
	CodeInsufficientBalance     = "INSUFFICIENT_BALANCE"
	CodeGoalOvershoot           = "GOAL_OVERSHOOT"
	CodeCurrencyMismatch        = "CURRENCY_MISMATCH"
	CodeDuplicateName           = "DUPLICATE_NAME"
	CodeDefaultAccountDelete    = "DEFAULT_ACCOUNT_DELETE"
	CodeAccountHasTransactions  = "ACCOUNT_HAS_TRANSACTIONS"
	CodeDefaultCategoryDelete   = "DEFAULT_CATEGORY_DELETE"
	CodeCategoryHasTransactions = "CATEGORY_HAS_TRANSACTIONS"
	CodeNoAccount               = "NO_ACCOUNT"
	CodeNoCategory              = "NO_CATEGORY"
)

// Error is the single business-error type crossing the service boundary.
// Details carries the contract fields a client needs to act on the failure
// (available balance and currency, remaining goal headroom, and so on).
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WithDetail attaches a contract field to the error and returns it.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func NotFound(entity string, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s %d not found", entity, id),
	}
}

func Forbidden(entity string, id int64) *Error {
	return &Error{
		Kind:    KindForbidden,
		Message: fmt.Sprintf("%s %d belongs to another user", entity, id),
	}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// KindOf extracts the business-error kind, or "" for plain errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
