package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrEmptyFile means the content has no non-blank lines.
	ErrEmptyFile = errors.New("empty file: no header row found")

	// ErrUnreadableFile means the content is not delimited text.
	ErrUnreadableFile = errors.New("unreadable file: content is not CSV text")

	// ErrFileTooLarge means the content exceeds the configured maximum.
	ErrFileTooLarge = errors.New("file too large")

	ErrJobNotFound   = errors.New("import job not found")
	ErrJobNotPending = errors.New("import job is not pending")
	ErrUnknownKind   = errors.New("unknown import type")
	ErrKindMismatch  = errors.New("import type does not match job")

	// ErrInvalidTransition is returned by a JobStore asked to finish a job
	// that is not processing.
	ErrInvalidTransition = errors.New("invalid import status transition")

	// ErrUnterminatedQuote is returned for a line whose quotes do not balance.
	ErrUnterminatedQuote = errors.New("unterminated quoted field; multi-line fields are not supported")
)

// PreconditionError wraps a failure detected before any row is attempted.
// The job is marked failed and no row errors are recorded.
type PreconditionError struct {
	Err error
}

func (e *PreconditionError) Error() string {
	return "precondition failed: " + e.Err.Error()
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// IsPrecondition reports whether err aborted a job before row processing.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// ReferenceError means a natural key of a prerequisite entity did not resolve.
type ReferenceError struct {
	Entity       string // "teacher", "subject", "group"
	Field        string // natural key field: "username", "code"
	Value        string
	Prerequisite ImportKind
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s with %s %q not found; import %s first", e.Entity, e.Field, e.Value, e.Prerequisite)
}

// ReferenceErrors collects every unresolved reference of a single row.
type ReferenceErrors []*ReferenceError

func (e ReferenceErrors) Error() string {
	parts := make([]string, len(e))
	for i, ref := range e {
		parts[i] = ref.Error()
	}
	return strings.Join(parts, "; ")
}

func (e ReferenceErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, ref := range e {
		errs[i] = ref
	}
	return errs
}

// DuplicateError means a natural key already exists in the target store.
type DuplicateError struct {
	Entity string
	Field  string
	Value  string
}

func (e *DuplicateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s with this %s already exists", e.Entity, e.Field)
	}
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// CompensationError is returned when a user row failed after its identity
// was created and deleting that identity failed too. Both causes are kept.
type CompensationError struct {
	IdentityID uuid.UUID
	Cause      error
	Cleanup    error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("%v; removing identity %s also failed: %v", e.Cause, e.IdentityID, e.Cleanup)
}

func (e *CompensationError) Unwrap() []error {
	return []error{e.Cause, e.Cleanup}
}
