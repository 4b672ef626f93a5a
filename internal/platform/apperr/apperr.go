package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// StatusClientClosed is reported when the caller went away before we answered.
const StatusClientClosed = 499

// Error is the single error shape the API hands back to clients.
type Error struct {
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Code    string         `json:"code,omitempty"`
	Field   string         `json:"field,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = fmt.Sprintf("app error (%d)", e.Status)
	}
	if e.Field != "" {
		return e.Field + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// WithData attaches structured data and returns the same error.
func (e *Error) WithData(key string, val any) *Error {
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	e.Data[key] = val
	return e
}

// WithCause records the underlying error without exposing it to clients.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, "bad_request", message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, "forbidden", message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, "not_found", message)
}

func Conflict(field, message string) *Error {
	e := New(http.StatusConflict, "conflict", message)
	e.Field = field
	return e
}

// Validation reports an invalid input field.
func Validation(field, message string) *Error {
	e := New(http.StatusUnprocessableEntity, "invalid", message)
	e.Field = field
	return e
}

func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "internal",
		Message: "Internal server error",
		Err:     err,
	}
}

// List collects several errors, typically from a validation pass.
type List []*Error

func (l List) Error() string {
	parts := make([]string, 0, len(l))
	for _, e := range l {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Status is the most severe status in the list.
func (l List) Status() int {
	status := 0
	for _, e := range l {
		if e != nil && e.Status > status {
			status = e.Status
		}
	}
	if status == 0 {
		return http.StatusInternalServerError
	}
	return status
}

// Err returns nil for an empty list so callers can `return list.Err()`.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Normalize converts any error into the client-facing list shape.
func Normalize(err error) List {
	if err == nil {
		return nil
	}
	var list List
	if errors.As(err, &list) && len(list) > 0 {
		return list
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr != nil {
		if appErr.Status == 0 {
			appErr.Status = http.StatusInternalServerError
		}
		return List{appErr}
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return List{NotFound("Not found").WithCause(err)}
	case errors.Is(err, context.Canceled):
		return List{New(StatusClientClosed, "canceled", "Request canceled").WithCause(err)}
	case errors.Is(err, context.DeadlineExceeded):
		return List{New(http.StatusGatewayTimeout, "timeout", "Request timed out").WithCause(err)}
	}
	return List{Internal(err)}
}

// StatusOf is a shortcut for Normalize(err).Status().
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return Normalize(err).Status()
}
