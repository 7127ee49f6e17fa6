// Package sqlite implements the school store over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("sqlite store is closed")

// Options configures a Store.
type Options struct {
	// QueryTimeout bounds each call. Zero means no extra bound.
	QueryTimeout time.Duration
	Logger       *logger.Logger
}

// Store implements school.Store using SQLite.
type Store struct {
	db      *sql.DB
	path    string
	timeout time.Duration
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
}

var _ school.Store = (*Store)(nil)

// Open opens (creating if absent) the database file at path.
// Errors wrap school.ErrNotOpened.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	const op = "sqlite.Open"

	if path == "" {
		return nil, school.E(op, school.ErrNotOpened, errors.New("empty path"))
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, school.E(op, school.ErrNotOpened, err)
	}

	// One connection keeps the foreign_keys pragma in effect for every call.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, school.E(op, school.ErrNotOpened, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Store{
		db:      db,
		path:    path,
		timeout: opts.QueryTimeout,
		log:     log.With(logger.Component("sqlite"), logger.String("path", path)),
	}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the handle. Safe to call more than once and on nil.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) handle() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// exec runs a single write statement and reports ErrNotFound when no row
// was affected and mustAffect is set.
func (s *Store) exec(ctx context.Context, op string, mustAffect bool, query string, args ...any) error {
	db, err := s.handle()
	if err != nil {
		return school.E(op, school.ErrStoreIO, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	if !mustAffect {
		return nil
	}

	n, err := res.RowsAffected()
	if err != nil {
		return school.E(op, school.ErrStoreIO, err)
	}
	if n == 0 {
		return school.E(op, school.ErrNotFound, nil)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// LoadAll returns every row, ordered by primary key.
func (s *Store) LoadAll(ctx context.Context) (school.Snapshot, error) {
	const op = "sqlite.LoadAll"

	db, err := s.handle()
	if err != nil {
		return school.Snapshot{}, school.E(op, school.ErrStoreIO, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var snap school.Snapshot

	rows, err := db.QueryContext(ctx, `
		SELECT roll_no, name, COALESCE(address, ''), COALESCE(contact, '')
		FROM students ORDER BY roll_no`)
	if err != nil {
		return school.Snapshot{}, classify(op, err)
	}
	for rows.Next() {
		var st school.Student
		if err := rows.Scan(&st.RollNo, &st.Name, &st.Address, &st.Contact); err != nil {
			rows.Close()
			return school.Snapshot{}, classify(op, err)
		}
		snap.Students = append(snap.Students, st)
	}
	if err := closeRows(rows); err != nil {
		return school.Snapshot{}, classify(op, err)
	}

	rows, err = db.QueryContext(ctx, `
		SELECT code, title, COALESCE(description, ''), COALESCE(teacher, '')
		FROM courses ORDER BY code`)
	if err != nil {
		return school.Snapshot{}, classify(op, err)
	}
	for rows.Next() {
		var c school.Course
		if err := rows.Scan(&c.Code, &c.Title, &c.Description, &c.Teacher); err != nil {
			rows.Close()
			return school.Snapshot{}, classify(op, err)
		}
		snap.Courses = append(snap.Courses, c)
	}
	if err := closeRows(rows); err != nil {
		return school.Snapshot{}, classify(op, err)
	}

	rows, err = db.QueryContext(ctx, `
		SELECT roll_no, course_code, internal_mark, final_mark
		FROM grades ORDER BY roll_no, course_code`)
	if err != nil {
		return school.Snapshot{}, classify(op, err)
	}
	for rows.Next() {
		var e school.Enrollment
		if err := rows.Scan(&e.RollNo, &e.CourseCode, &e.InternalMark, &e.FinalMark); err != nil {
			rows.Close()
			return school.Snapshot{}, classify(op, err)
		}
		snap.Enrollments = append(snap.Enrollments, e)
	}
	if err := closeRows(rows); err != nil {
		return school.Snapshot{}, classify(op, err)
	}

	return snap, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

// Counts returns the row count of each table.
func (s *Store) Counts(ctx context.Context) (school.Counts, error) {
	const op = "sqlite.Counts"

	db, err := s.handle()
	if err != nil {
		return school.Counts{}, school.E(op, school.ErrStoreIO, err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var c school.Counts
	err = db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM grades)`,
	).Scan(&c.Students, &c.Courses, &c.Enrollments)
	if err != nil {
		return school.Counts{}, classify(op, err)
	}
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// InsertStudent inserts a new student.
func (s *Store) InsertStudent(ctx context.Context, st school.Student) error {
	return s.exec(ctx, "sqlite.InsertStudent", false,
		`INSERT INTO students (roll_no, name, address, contact) VALUES (?, ?, ?, ?)`,
		st.RollNo, st.Name, st.Address, st.Contact,
	)
}

// InsertCourse inserts a new course.
func (s *Store) InsertCourse(ctx context.Context, c school.Course) error {
	return s.exec(ctx, "sqlite.InsertCourse", false,
		`INSERT INTO courses (code, title, description, teacher) VALUES (?, ?, ?, ?)`,
		c.Code, c.Title, c.Description, c.Teacher,
	)
}

// Enroll inserts an enrollment with both marks at zero.
func (s *Store) Enroll(ctx context.Context, roll, code string) error {
	return s.exec(ctx, "sqlite.Enroll", false,
		`INSERT INTO grades (roll_no, course_code) VALUES (?, ?)`,
		roll, code,
	)
}

// UpdateMarks overwrites both marks of an enrollment.
func (s *Store) UpdateMarks(ctx context.Context, roll, code string, internal, final float64) error {
	return s.exec(ctx, "sqlite.UpdateMarks", true,
		`UPDATE grades SET internal_mark = ?, final_mark = ? WHERE roll_no = ? AND course_code = ?`,
		internal, final, roll, code,
	)
}

// UpdateStudent rewrites name, address and contact.
func (s *Store) UpdateStudent(ctx context.Context, st school.Student) error {
	return s.exec(ctx, "sqlite.UpdateStudent", true,
		`UPDATE students SET name = ?, address = ?, contact = ? WHERE roll_no = ?`,
		st.Name, st.Address, st.Contact, st.RollNo,
	)
}

// UpdateCourse rewrites title, description and teacher.
func (s *Store) UpdateCourse(ctx context.Context, c school.Course) error {
	return s.exec(ctx, "sqlite.UpdateCourse", true,
		`UPDATE courses SET title = ?, description = ?, teacher = ? WHERE code = ?`,
		c.Title, c.Description, c.Teacher, c.Code,
	)
}

// DeleteStudent removes a student; grades cascade.
func (s *Store) DeleteStudent(ctx context.Context, roll string) error {
	return s.exec(ctx, "sqlite.DeleteStudent", true,
		`DELETE FROM students WHERE roll_no = ?`, roll,
	)
}

// DeleteCourse removes a course; grades cascade.
func (s *Store) DeleteCourse(ctx context.Context, code string) error {
	return s.exec(ctx, "sqlite.DeleteCourse", true,
		`DELETE FROM courses WHERE code = ?`, code,
	)
}

// DeleteEnrollment removes one grade row.
func (s *Store) DeleteEnrollment(ctx context.Context, roll, code string) error {
	return s.exec(ctx, "sqlite.DeleteEnrollment", true,
		`DELETE FROM grades WHERE roll_no = ? AND course_code = ?`, roll, code,
	)
}
