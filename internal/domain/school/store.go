package school

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// STORE CONTRACT
// Implementations live in infrastructure/persistence. The store is the only
// source of truth; every write either happens completely or returns an error.
// ══════════════════════════════════════════════════════════════════════════════

// Store is the durable, relational persistence layer.
type Store interface {
	// InitSchema creates the tables if missing, enables cascading deletes and
	// seeds each table that is empty. Safe to call on every start.
	// Errors wrap ErrSchema.
	InitSchema(ctx context.Context) error

	// LoadAll returns every row of every table.
	LoadAll(ctx context.Context) (Snapshot, error)

	// Counts returns the row count of each table.
	Counts(ctx context.Context) (Counts, error)

	// InsertStudent fails with ErrConflict if the roll number exists.
	InsertStudent(ctx context.Context, s Student) error

	// InsertCourse fails with ErrConflict if the code exists.
	InsertCourse(ctx context.Context, c Course) error

	// Enroll inserts an enrollment with zero marks. Fails with ErrConflict on
	// a duplicate pair or a missing student/course.
	Enroll(ctx context.Context, roll, code string) error

	// UpdateMarks fails with ErrNotFound if no enrollment matched and with
	// ErrInvalidMarks if the engine rejects the values.
	UpdateMarks(ctx context.Context, roll, code string, internal, final float64) error

	// UpdateStudent rewrites the mutable fields by roll number.
	UpdateStudent(ctx context.Context, s Student) error

	// UpdateCourse rewrites the mutable fields by code.
	UpdateCourse(ctx context.Context, c Course) error

	// DeleteStudent removes the student; the engine cascades its enrollments.
	DeleteStudent(ctx context.Context, roll string) error

	// DeleteCourse removes the course; the engine cascades its enrollments.
	DeleteCourse(ctx context.Context, code string) error

	// DeleteEnrollment removes a single enrollment.
	DeleteEnrollment(ctx context.Context, roll, code string) error

	// Close releases the handle. Calling it more than once is fine.
	Close() error
}

// ReportCache keeps rendered reports outside the process. Implementations
// must treat a miss as (Report{}, false, nil). Errors are never fatal to the
// caller; the mirror can always rebuild a report.
type ReportCache interface {
	Get(ctx context.Context, roll string) (Report, bool, error)
	Set(ctx context.Context, r Report) error
	Invalidate(ctx context.Context, rolls ...string) error
	InvalidateAll(ctx context.Context) error
}
