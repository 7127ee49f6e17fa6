package school

import (
	"errors"
	"fmt"
)

// Base kinds, checked with errors.Is.
var (
	// ErrNotOpened: the store could not be created or opened. Fatal at startup.
	ErrNotOpened = errors.New("store not opened")

	// ErrSchema: table creation or seeding failed. Fatal at startup.
	ErrSchema = errors.New("schema failure")

	// ErrConflict: duplicate identifier, duplicate enrollment or a missing
	// referenced student/course.
	ErrConflict = errors.New("constraint violation")

	// ErrNotFound: an update or delete matched no row.
	ErrNotFound = errors.New("not found")

	// ErrInvalidMarks: a mark outside [0, 100].
	ErrInvalidMarks = errors.New("marks out of range")

	// ErrStoreIO: any other storage failure.
	ErrStoreIO = errors.New("store i/o failure")

	// ErrMirrorInconsistency: the store accepted a write the mirror could not
	// apply. Indicates a logic defect.
	ErrMirrorInconsistency = errors.New("mirror inconsistency")
)

// Error carries the failing operation alongside its kind.
type Error struct {
	Op   string // e.g. "InsertStudent", "registry.Enroll"
	Kind error  // one of the base kinds above
	Err  error  // underlying cause, optional
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Unwrap returns the underlying error, or the kind if there is none.
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches both the kind and the wrapped cause.
func (e *Error) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// E builds an *Error.
func E(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Outcome is the coarse result of a mutating operation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeConflict
	OutcomeInvalid
	OutcomeIOError
	OutcomeInconsistent
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeConflict:
		return "conflict"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeIOError:
		return "io_error"
	case OutcomeInconsistent:
		return "inconsistent"
	default:
		return "unknown"
	}
}

// OutcomeOf classifies err. Callers that only need "did it happen" compare
// against OutcomeOK.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrMirrorInconsistency):
		return OutcomeInconsistent
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrConflict):
		return OutcomeConflict
	case errors.Is(err, ErrInvalidMarks):
		return OutcomeInvalid
	default:
		return OutcomeIOError
	}
}
