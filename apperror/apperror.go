package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeAuth           Code = "AUTH_ERROR"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeBlockedByOther Code = "BLOCKED_BY_OTHER"
	CodeBlockedByYou   Code = "BLOCKED_BY_YOU"
	CodeBanned         Code = "BANNED"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL"
)

// Error is the single error type crossing package boundaries. Data carries an
// optional payload for the client, e.g. the block status snapshot.
type Error struct {
	Code    Code   `json:"type"`
	Message string `json:"error"`
	Data    any    `json:"data,omitempty"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on code so that errors.Is(err, apperror.ErrNotFound) works for
// any NOT_FOUND error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) WithData(data any) *Error {
	out := *e
	out.Data = data
	return &out
}

func Auth(msg string) *Error       { return New(CodeAuth, msg) }
func Validation(msg string) *Error { return New(CodeValidation, msg) }
func NotFound(msg string) *Error   { return New(CodeNotFound, msg) }
func Conflict(msg string) *Error   { return New(CodeConflict, msg) }

func Internal(cause error) *Error {
	return Wrap(CodeInternal, "internal error", cause)
}

var (
	ErrAuth       = Auth("invalid or expired token")
	ErrValidation = Validation("invalid input")
	ErrNotFound   = NotFound("not found")
	ErrConflict   = Conflict("conflict")
	ErrInternal   = New(CodeInternal, "internal error")
)

// From converts any error into an *Error, defaulting to INTERNAL.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}

func HTTPStatus(code Code) int {
	switch code {
	case CodeAuth:
		return http.StatusUnauthorized
	case CodeValidation:
		return http.StatusBadRequest
	case CodeBlockedByOther, CodeBlockedByYou, CodeBanned:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
