package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindDependency Kind = "dependency"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
)

type Code string

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeDiscountExceeds  Code = "DISCOUNT_EXCEEDS_SUBTOTAL"
	CodeDiscountLocked   Code = "DISCOUNT_LOCKED"
	CodeNoActiveItems    Code = "NO_ACTIVE_ITEMS"
	CodeNothingToSend    Code = "NO_PENDING_ITEMS"
	CodeTableUnavailable Code = "TABLE_NOT_AVAILABLE"
	CodeSessionOpen      Code = "SESSION_ALREADY_OPEN"
	CodeSessionRequired  Code = "SESSION_REQUIRED"
	CodeSessionBusy      Code = "SESSION_HAS_OPEN_ORDER"
	CodeOrderTerminal    Code = "ORDER_TERMINAL"
	CodeOrderHasPayments Code = "ORDER_HAS_PAYMENTS"
	CodeOrderNotBilled   Code = "ORDER_NOT_BILLED"
	CodeInvoiceStale     Code = "INVOICE_NOT_ACTIVE"
	CodeInvalidStatus    Code = "INVALID_STATUS_TRANSITION"
	CodeItemTerminal     Code = "ITEM_TERMINAL"
	CodeDependency       Code = "DEPENDENCY_UNAVAILABLE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeVoidPINRequired  Code = "VOID_PIN_REQUIRED"
)

// Error is the single error type surfaced by the engine. Message names the
// violated invariant; Details carries the current state for resynchronisation.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindDependency:
		return http.StatusServiceUnavailable
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func newError(kind Kind, code Code, message string, details map[string]any) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Details: details}
}

func Validation(code Code, message string, details map[string]any) *Error {
	if code == "" {
		code = CodeValidation
	}
	return newError(KindValidation, code, message, details)
}

func Conflict(code Code, message string, details map[string]any) *Error {
	return newError(KindConflict, code, message, details)
}

func Forbidden(code Code, message string, details map[string]any) *Error {
	return newError(KindForbidden, code, message, details)
}

func NotFound(entity string, id any) *Error {
	return newError(KindNotFound, CodeNotFound, fmt.Sprintf("%s %v not found", entity, id), map[string]any{
		"entity": entity,
		"id":     id,
	})
}

func Dependency(message string, err error) *Error {
	e := newError(KindDependency, CodeDependency, message, nil)
	e.Err = err
	return e
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
