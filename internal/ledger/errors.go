package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Domi-X-in/financial-ledger-app/internal/models"
)

// Failure kinds. Every error returned by Service matches exactly one of them
// under errors.Is.
var (
	ErrNotFound     = models.ErrNotFound
	ErrAccessDenied = errors.New("access denied")
	ErrValidation   = errors.New("validation failed")
	ErrServer       = errors.New("server error")
)

// Error is a classified failure whose message is safe to show to clients.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap returns the failure kind.
func (e *Error) Unwrap() error { return e.kind }

func notFound(what string) error {
	return &Error{kind: ErrNotFound, msg: what + " not found"}
}

func accessDenied(msg string) error {
	return &Error{kind: ErrAccessDenied, msg: msg}
}

// ValidationError reports malformed input. Details lists individual problems,
// such as one message per rejected CSV row.
type ValidationError struct {
	Message string
	Details []string
	// Rows holds the 1-indexed rows rejected by a bulk import.
	Rows []int
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// storageError classifies a backend failure. A missing record keeps its
// not-found identity, anything else becomes a server error.
func storageError(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrServer, err)
}
