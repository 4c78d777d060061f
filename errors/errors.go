package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Kind classifies an application error so the API boundary can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindSlotUnavailable
	KindFinalization
	KindServiceUnavailable
	KindAuth
	KindConflict
	KindEmptyResult
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindSlotUnavailable:
		return "slot_unavailable"
	case KindFinalization:
		return "finalization"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindAuth:
		return "auth"
	case KindConflict:
		return "conflict"
	case KindEmptyResult:
		return "empty_result"
	default:
		return "internal"
	}
}

// Error is an application error with a kind, a user-facing message and an optional cause.
type Error struct {
	kind     Kind
	message  string
	wrapped  error
	sentinel bool
}

var (
	ErrValidation         = sentinel(KindValidation, "invalid input")
	ErrNotFound           = sentinel(KindNotFound, "resource not found")
	ErrSlotUnavailable    = sentinel(KindSlotUnavailable, "this slot is no longer available, please choose another")
	ErrFinalization       = sentinel(KindFinalization, "booking could not be finalized")
	ErrServiceUnavailable = sentinel(KindServiceUnavailable, "service temporarily unavailable")
	ErrAuth               = sentinel(KindAuth, "authentication required")
	ErrConflict           = sentinel(KindConflict, "resource already exists")
	ErrEmptyResult        = sentinel(KindEmptyResult, "operation produced no result")
)

func sentinel(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message, sentinel: true}
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Unavailable(err error) *Error {
	return New(KindServiceUnavailable, ErrServiceUnavailable.message).Wrap(err)
}

// Wrap attaches a cause. The cause is logged but never shown to clients.
func (e *Error) Wrap(err error) *Error {
	if err != nil {
		e.wrapped = err
	}
	return e
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Message() string {
	return e.message
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is matches any error of the same kind when the target is one of the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.sentinel {
		return t.kind == e.kind
	}
	return t == e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.message
	}
	return "internal error"
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindSlotUnavailable, KindConflict:
		return fiber.StatusConflict
	case KindEmptyResult:
		return fiber.StatusUnprocessableEntity
	case KindServiceUnavailable:
		return fiber.StatusServiceUnavailable
	case KindAuth:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

func RaiseError(context *fiber.Ctx, status int, message string, data string) error {
	return context.Status(status).JSON(fiber.Map{
		"success": false,
		"status":  "error",
		"message": message,
		"data":    data})
}

func RaisePermissionsError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusUnauthorized, "lack of permissions", data)
}

func RaiseInternalServerError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusInternalServerError, "internal error", data)
}

func RaiseBadRequestError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusBadRequest, "bad request", data)
}

func RaiseNotFoundError(context *fiber.Ctx, data string) error {
	return RaiseError(context, fiber.StatusNotFound, "resource not found", data)
}

// Respond writes err as a JSON error envelope. Server-side failures are logged with
// their cause and answered with a generic message.
func Respond(context *fiber.Ctx, logger *zap.Logger, err error) error {
	kind := KindOf(err)
	status := Status(kind)
	switch kind {
	case KindValidation:
		return RaiseBadRequestError(context, MessageOf(err))
	case KindNotFound:
		return RaiseNotFoundError(context, MessageOf(err))
	case KindAuth:
		return RaisePermissionsError(context, MessageOf(err))
	case KindSlotUnavailable, KindConflict, KindEmptyResult:
		return RaiseError(context, status, MessageOf(err), kind.String())
	}

	if logger != nil {
		logger.Error("request failed",
			zap.String("method", context.Method()),
			zap.String("path", context.Path()),
			zap.String("kind", kind.String()),
			zap.Error(err))
	}
	if kind == KindServiceUnavailable {
		return RaiseError(context, status, "service temporarily unavailable", "")
	}
	if kind == KindFinalization {
		return RaiseError(context, status, MessageOf(err), "")
	}
	return RaiseInternalServerError(context, "unexpected server error")
}
