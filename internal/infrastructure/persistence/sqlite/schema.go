package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pspschool/studentms/internal/domain/school"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCHEMA
// ══════════════════════════════════════════════════════════════════════════════

const schemaSQL = `
CREATE TABLE IF NOT EXISTS students (
	roll_no TEXT PRIMARY KEY,
	name    TEXT NOT NULL,
	address TEXT,
	contact TEXT
);

CREATE TABLE IF NOT EXISTS courses (
	code        TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT,
	teacher     TEXT
);

CREATE TABLE IF NOT EXISTS grades (
	roll_no       TEXT NOT NULL,
	course_code   TEXT NOT NULL,
	internal_mark REAL NOT NULL DEFAULT 0 CHECK (internal_mark BETWEEN 0 AND 100),
	final_mark    REAL NOT NULL DEFAULT 0 CHECK (final_mark BETWEEN 0 AND 100),
	PRIMARY KEY (roll_no, course_code),
	FOREIGN KEY (roll_no) REFERENCES students(roll_no) ON DELETE CASCADE,
	FOREIGN KEY (course_code) REFERENCES courses(code) ON DELETE CASCADE
);
`

// InitSchema creates the tables and seeds each empty table.
func (s *Store) InitSchema(ctx context.Context) error {
	const op = "sqlite.InitSchema"

	db, err := s.handle()
	if err != nil {
		return school.E(op, school.ErrSchema, err)
	}

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return school.E(op, school.ErrSchema, err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return school.E(op, school.ErrSchema, err)
	}

	seeds := []struct {
		table string
		fill  func(context.Context, *sql.Tx) error
	}{
		{"students", seedStudents},
		{"courses", seedCourses},
		{"grades", seedGrades},
	}
	for _, sd := range seeds {
		if err := seedIfEmpty(ctx, db, sd.table, sd.fill); err != nil {
			return school.E(op, school.ErrSchema, err)
		}
	}

	s.log.Debug("schema ready")
	return nil
}

func seedIfEmpty(ctx context.Context, db *sql.DB, table string, fill func(context.Context, *sql.Tx) error) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed %s: %w", table, err)
	}
	if err := fill(ctx, tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("seed %s: %w", table, err)
	}
	return tx.Commit()
}

func seedStudents(ctx context.Context, tx *sql.Tx) error {
	for _, st := range school.SeedStudents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO students (roll_no, name, address, contact) VALUES (?, ?, ?, ?)`,
			st.RollNo, st.Name, st.Address, st.Contact,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedCourses(ctx context.Context, tx *sql.Tx) error {
	for _, c := range school.SeedCourses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO courses (code, title, description, teacher) VALUES (?, ?, ?, ?)`,
			c.Code, c.Title, c.Description, c.Teacher,
		); err != nil {
			return err
		}
	}
	return nil
}

func seedGrades(ctx context.Context, tx *sql.Tx) error {
	for _, e := range school.SeedEnrollments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO grades (roll_no, course_code, internal_mark, final_mark) VALUES (?, ?, ?, ?)`,
			e.RollNo, e.CourseCode, e.InternalMark, e.FinalMark,
		); err != nil {
			return err
		}
	}
	return nil
}
