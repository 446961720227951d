package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"blog/pkg/logger"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
)

// Validationf builds an ErrValidation carrying a message for the client.
func Validationf(format string, args ...interface{}) error {
	return &PublicError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// PublicError is an error whose Message is safe to show to clients.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message }
func (e *PublicError) Unwrap() error { return e.Kind }

func NewPublicError(kind error, msg string) error {
	return &PublicError{Kind: kind, Message: msg}
}

func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// WriteError logs err and writes it as {message} for known kinds, or as
// {message, error} with status 500 for anything else. fallback is the
// message used when err carries no client-facing text.
func WriteError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		logger.Log(ctx).Errorf("%s: %v", fallback, err)
		w.WriteHeader(code)
		WriteRespJSON(w, ErrMsg{Message: fallback, Error: err.Error()})
		return
	}

	logger.Log(ctx).Infof("%s: %v", fallback, err)
	msg := fallback
	var pe *PublicError
	if errors.As(err, &pe) {
		msg = pe.Message
	}
	WriteMsg(w, msg, code)
}
