package market

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error code. Clients branch on the
// code; Message wording may change without breaking them.
type Code string

const (
	CodeAssetNotFound         Code = "ASSET_NOT_FOUND"
	CodeNoDataAvailable       Code = "NO_DATA_AVAILABLE"
	CodeUpstreamError         Code = "UPSTREAM_ERROR"
	CodeTransportError        Code = "TRANSPORT_ERROR"
	CodeInvalidProvider       Code = "INVALID_PROVIDER"
	CodeIndicatorsUnavailable Code = "INDICATORS_UNAVAILABLE"
	CodeInternalError         Code = "INTERNAL_ERROR"
)

// Error is the one error type crossing package boundaries. Details are
// structured context for the client (ticker, upstream status, failed
// sections), not free-form debug text.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetail returns e with an extra detail entry set.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

func NotFound(message string, details map[string]any) *Error {
	return &Error{Code: CodeAssetNotFound, Message: message, Details: details}
}

func NoData(message string, details map[string]any) *Error {
	return &Error{Code: CodeNoDataAvailable, Message: message, Details: details}
}

func Upstream(status int, message string) *Error {
	return &Error{
		Code:    CodeUpstreamError,
		Message: message,
		Details: map[string]any{"status": status},
	}
}

func Transport(err error) *Error {
	return &Error{Code: CodeTransportError, Message: "failed to reach upstream API", Details: map[string]any{"cause": err.Error()}}
}

func InvalidProvider(name string) *Error {
	return &Error{
		Code:    CodeInvalidProvider,
		Message: fmt.Sprintf("provider %q not registered", name),
		Details: map[string]any{"provider": name},
	}
}

func IndicatorsUnavailable(sections []string) *Error {
	return &Error{
		Code:    CodeIndicatorsUnavailable,
		Message: "indicator data unavailable",
		Details: map[string]any{"failed_sections": sections},
	}
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternalError, Message: "unexpected internal error", Details: map[string]any{"cause": err.Error()}}
}

// As extracts the *Error from err, wrapping foreign errors as
// InternalError so callers always have a coded error to surface.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
