package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")

	// Client-side failure kinds for calls to the report backend.
	ErrNoDocument  = errors.New("no document indexed")
	ErrUnreachable = errors.New("backend unreachable")
	ErrTimedOut    = errors.New("request timed out")
	ErrEmptyAnswer = errors.New("empty answer")
)

// ServerReason carries a human-readable failure reason reported by the
// backend in an application-level error payload.
type ServerReason struct {
	Reason string
}

func (e *ServerReason) Error() string {
	if e == nil || e.Reason == "" {
		return "server-reported failure"
	}
	return e.Reason
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
