package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHOOL STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// Store implements school.Store for PostgreSQL.
type Store struct {
	conn    *Connection
	timeout time.Duration
	log     *logger.Logger
}

var _ school.Store = (*Store)(nil)

// Open connects to cfg.URL. Errors wrap school.ErrNotOpened.
func Open(ctx context.Context, cfg Config, timeout time.Duration, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("postgres"))

	conn, err := NewConnection(ctx, cfg, log)
	if err != nil {
		return nil, school.E("postgres.Open", school.ErrNotOpened, err)
	}

	return &Store{conn: conn, timeout: timeout, log: log}, nil
}

// NewStore wraps an existing connection.
func NewStore(conn *Connection, timeout time.Duration, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{conn: conn, timeout: timeout, log: log}
}

// Close closes the pool. Safe to call more than once and on nil.
func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	s.conn.Close()
	return nil
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// classify maps pg errors to school error kinds.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case IsUniqueViolation(err), IsForeignKeyViolation(err):
		return school.E(op, school.ErrConflict, err)
	case IsCheckViolation(err):
		return school.E(op, school.ErrInvalidMarks, err)
	default:
		return school.E(op, school.ErrStoreIO, err)
	}
}

// exec runs one write. With mustAffect, zero affected rows is ErrNotFound.
func (s *Store) exec(ctx context.Context, op string, mustAffect bool, query string, args ...any) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return classify(op, err)
	}
	if mustAffect && tag.RowsAffected() == 0 {
		return school.E(op, school.ErrNotFound, nil)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Schema
// ─────────────────────────────────────────────────────────────────────────────

// InitSchema applies pending migrations and seeds each empty table.
func (s *Store) InitSchema(ctx context.Context) error {
	const op = "postgres.InitSchema"

	if err := NewMigrator(s.conn).Migrate(ctx); err != nil {
		return school.E(op, school.ErrSchema, err)
	}

	seeds := []struct {
		table string
		fill  func(context.Context, pgx.Tx) error
	}{
		{"students", seedStudents},
		{"courses", seedCourses},
		{"grades", seedGrades},
	}
	for _, sd := range seeds {
		err := s.conn.WithTx(ctx, func(tx pgx.Tx) error {
			var n int
			if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+sd.table).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
			return sd.fill(ctx, tx)
		})
		if err != nil {
			return school.E(op, school.ErrSchema, err)
		}
	}

	s.log.Debug("schema ready")
	return nil
}

func seedStudents(ctx context.Context, tx pgx.Tx) error {
	batch := &pgx.Batch{}
	for _, st := range school.SeedStudents {
		batch.Queue(`INSERT INTO students (roll_no, name, address, contact) VALUES ($1, $2, $3, $4)`,
			st.RollNo, st.Name, st.Address, st.Contact)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func seedCourses(ctx context.Context, tx pgx.Tx) error {
	batch := &pgx.Batch{}
	for _, c := range school.SeedCourses {
		batch.Queue(`INSERT INTO courses (code, title, description, teacher) VALUES ($1, $2, $3, $4)`,
			c.Code, c.Title, c.Description, c.Teacher)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func seedGrades(ctx context.Context, tx pgx.Tx) error {
	batch := &pgx.Batch{}
	for _, e := range school.SeedEnrollments {
		batch.Queue(`INSERT INTO grades (roll_no, course_code, internal_mark, final_mark) VALUES ($1, $2, $3, $4)`,
			e.RollNo, e.CourseCode, e.InternalMark, e.FinalMark)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// LoadAll returns every row ordered by primary key.
func (s *Store) LoadAll(ctx context.Context) (school.Snapshot, error) {
	const op = "postgres.LoadAll"

	ctx, cancel := s.bound(ctx)
	defer cancel()

	var snap school.Snapshot
	var err error

	snap.Students, err = collect(ctx, s.conn,
		`SELECT roll_no, name, address, contact FROM students ORDER BY roll_no`,
		func(row pgx.CollectableRow) (school.Student, error) {
			var st school.Student
			err := row.Scan(&st.RollNo, &st.Name, &st.Address, &st.Contact)
			return st, err
		})
	if err != nil {
		return school.Snapshot{}, classify(op, err)
	}

	snap.Courses, err = collect(ctx, s.conn,
		`SELECT code, title, description, teacher FROM courses ORDER BY code`,
		func(row pgx.CollectableRow) (school.Course, error) {
			var c school.Course
			err := row.Scan(&c.Code, &c.Title, &c.Description, &c.Teacher)
			return c, err
		})
	if err != nil {
		return school.Snapshot{}, classify(op, err)
	}

	snap.Enrollments, err = collect(ctx, s.conn,
		`SELECT roll_no, course_code, internal_mark, final_mark FROM grades ORDER BY roll_no, course_code`,
		func(row pgx.CollectableRow) (school.Enrollment, error) {
			var e school.Enrollment
			err := row.Scan(&e.RollNo, &e.CourseCode, &e.InternalMark, &e.FinalMark)
			return e, err
		})
	if err != nil {
		return school.Snapshot{}, classify(op, err)
	}

	return snap, nil
}

func collect[T any](ctx context.Context, q Querier, query string, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Counts returns the row count of each table.
func (s *Store) Counts(ctx context.Context) (school.Counts, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var c school.Counts
	err := s.conn.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM grades)`,
	).Scan(&c.Students, &c.Courses, &c.Enrollments)
	if err != nil {
		return school.Counts{}, classify("postgres.Counts", err)
	}
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// InsertStudent inserts a new student.
func (s *Store) InsertStudent(ctx context.Context, st school.Student) error {
	return s.exec(ctx, "postgres.InsertStudent", false,
		`INSERT INTO students (roll_no, name, address, contact) VALUES ($1, $2, $3, $4)`,
		st.RollNo, st.Name, st.Address, st.Contact,
	)
}

// InsertCourse inserts a new course.
func (s *Store) InsertCourse(ctx context.Context, c school.Course) error {
	return s.exec(ctx, "postgres.InsertCourse", false,
		`INSERT INTO courses (code, title, description, teacher) VALUES ($1, $2, $3, $4)`,
		c.Code, c.Title, c.Description, c.Teacher,
	)
}

// Enroll inserts a zero-mark enrollment.
func (s *Store) Enroll(ctx context.Context, roll, code string) error {
	return s.exec(ctx, "postgres.Enroll", false,
		`INSERT INTO grades (roll_no, course_code) VALUES ($1, $2)`,
		roll, code,
	)
}

// UpdateMarks overwrites both marks.
func (s *Store) UpdateMarks(ctx context.Context, roll, code string, internal, final float64) error {
	return s.exec(ctx, "postgres.UpdateMarks", true,
		`UPDATE grades SET internal_mark = $1, final_mark = $2 WHERE roll_no = $3 AND course_code = $4`,
		internal, final, roll, code,
	)
}

// UpdateStudent rewrites the mutable student fields.
func (s *Store) UpdateStudent(ctx context.Context, st school.Student) error {
	return s.exec(ctx, "postgres.UpdateStudent", true,
		`UPDATE students SET name = $1, address = $2, contact = $3 WHERE roll_no = $4`,
		st.Name, st.Address, st.Contact, st.RollNo,
	)
}

// UpdateCourse rewrites the mutable course fields.
func (s *Store) UpdateCourse(ctx context.Context, c school.Course) error {
	return s.exec(ctx, "postgres.UpdateCourse", true,
		`UPDATE courses SET title = $1, description = $2, teacher = $3 WHERE code = $4`,
		c.Title, c.Description, c.Teacher, c.Code,
	)
}

// DeleteStudent removes a student; grades cascade.
func (s *Store) DeleteStudent(ctx context.Context, roll string) error {
	return s.exec(ctx, "postgres.DeleteStudent", true,
		`DELETE FROM students WHERE roll_no = $1`, roll)
}

// DeleteCourse removes a course; grades cascade.
func (s *Store) DeleteCourse(ctx context.Context, code string) error {
	return s.exec(ctx, "postgres.DeleteCourse", true,
		`DELETE FROM courses WHERE code = $1`, code)
}

// DeleteEnrollment removes one grade row.
func (s *Store) DeleteEnrollment(ctx context.Context, roll, code string) error {
	return s.exec(ctx, "postgres.DeleteEnrollment", true,
		`DELETE FROM grades WHERE roll_no = $1 AND course_code = $2`, roll, code)
}
