package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed input to an operation or state transition.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks uniqueness violations and lost compare-and-set races.
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition marks a post status change that is not an edge of the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNoCredential marks an account without a usable access token at publish time.
	ErrNoCredential = errors.New("no usable credential")
	// ErrGeneration marks a content-generation provider failure.
	ErrGeneration = errors.New("generation failed")
	// ErrPlatform marks a publishing platform failure.
	ErrPlatform = errors.New("platform error")
	// ErrNoTopicAvailable marks exhaustion of both the trending and manual topic pools.
	ErrNoTopicAvailable = errors.New("no topic available")
)

// Error carries a taxonomy kind plus a human message. Error() returns the message
// alone so remote messages can be stored on a post verbatim.
type Error struct {
	Kind       error
	Msg        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

func (e *Error) Is(target error) bool {
	return e != nil && e.Kind != nil && target == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatusCode exposes the remote status so retry classification can see it.
func (e *Error) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

func Validationf(format string, args ...any) error { return newf(ErrValidation, format, args...) }

func NotFoundf(format string, args ...any) error { return newf(ErrNotFound, format, args...) }

func Conflictf(format string, args ...any) error { return newf(ErrConflict, format, args...) }

func NoCredentialf(format string, args ...any) error { return newf(ErrNoCredential, format, args...) }

func NoTopicf(format string, args ...any) error { return newf(ErrNoTopicAvailable, format, args...) }

// InvalidTransition reports a rejected lifecycle edge.
func InvalidTransition(from, to string) error {
	return newf(ErrInvalidTransition, "cannot move post from %s to %s", from, to)
}

// Generation wraps a provider failure. Wrapping an existing generation error is a no-op.
func Generation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGeneration) {
		return err
	}
	return &Error{Kind: ErrGeneration, Msg: err.Error(), Err: err}
}

func Generationf(format string, args ...any) error { return newf(ErrGeneration, format, args...) }

// Platform builds a publishing platform failure keeping the remote message intact.
func Platform(status int, msg string) error {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = fmt.Sprintf("platform responded with status %d", status)
	}
	return &Error{Kind: ErrPlatform, Msg: msg, StatusCode: status}
}

// PlatformWrap tags a transport failure (timeout, DNS, reset) as a platform error.
func PlatformWrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPlatform) {
		return err
	}
	return &Error{Kind: ErrPlatform, Msg: err.Error(), Err: err}
}
