package apierr

import (
	"errors"
	"fmt"
	"net/http"

	perr "github.com/yungbote/personapost-backend/internal/pkg/errors"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps a domain error onto an HTTP status and a stable error code.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, perr.ErrValidation):
		return New(http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, perr.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, perr.ErrConflict):
		return New(http.StatusConflict, "conflict", err)
	case errors.Is(err, perr.ErrInvalidTransition):
		return New(http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, perr.ErrNoCredential):
		return New(http.StatusUnprocessableEntity, "no_credential", err)
	case errors.Is(err, perr.ErrNoTopicAvailable):
		return New(http.StatusUnprocessableEntity, "no_topic_available", err)
	case errors.Is(err, perr.ErrGeneration):
		return New(http.StatusBadGateway, "generation_failed", err)
	case errors.Is(err, perr.ErrPlatform):
		return New(http.StatusBadGateway, "platform_error", err)
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
