package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pspschool/studentms/internal/domain/school"
)

// openTestStore connects to STUDENTMS_TEST_DATABASE_URL and starts from an
// empty schema. The test is skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("STUDENTMS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STUDENTMS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, DefaultConfig(url), 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.conn.Exec(ctx, `DROP TABLE IF EXISTS grades, courses, students, schema_migrations`)
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	return s
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsCheckViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))

	assert.ErrorIs(t, classify("x", &pgconn.PgError{Code: "23503"}), school.ErrConflict)
	assert.ErrorIs(t, classify("x", &pgconn.PgError{Code: "23514"}), school.ErrInvalidMarks)
	assert.ErrorIs(t, classify("x", ErrConnectionClosed), school.ErrStoreIO)
	assert.NoError(t, classify("x", nil))
}

func TestOpen_BadURL(t *testing.T) {
	_, err := Open(context.Background(), DefaultConfig("::not a url::"), 0, nil)
	assert.ErrorIs(t, err, school.ErrNotOpened)
}

func TestStore_Seed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.Counts{Students: 3, Courses: 3, Enrollments: 4}, c)

	require.NoError(t, s.InitSchema(ctx))
	c, err = s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.Counts{Students: 3, Courses: 3, Enrollments: 4}, c)

	status, err := NewMigrator(s.conn).Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.True(t, status[0].IsApplied)
}

func TestStore_WritesAndCascade(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.InsertStudent(ctx, school.Student{RollNo: "S004", Name: "Noa"}))
	assert.ErrorIs(t, s.InsertStudent(ctx, school.Student{RollNo: "S004", Name: "Noa"}), school.ErrConflict)
	assert.ErrorIs(t, s.Enroll(ctx, "S404", "MTH101"), school.ErrConflict)

	require.NoError(t, s.Enroll(ctx, "S004", "MTH101"))
	require.NoError(t, s.UpdateMarks(ctx, "S004", "MTH101", 40, 60))
	assert.ErrorIs(t, s.UpdateMarks(ctx, "S004", "MTH101", 40, 160), school.ErrInvalidMarks)
	assert.ErrorIs(t, s.UpdateMarks(ctx, "S004", "SCI101", 1, 1), school.ErrNotFound)

	require.NoError(t, s.DeleteCourse(ctx, "MTH101"))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	for _, e := range snap.Enrollments {
		assert.NotEqual(t, "MTH101", e.CourseCode)
	}
	assert.Len(t, snap.Enrollments, 2)
	assert.Equal(t, "S001", snap.Students[0].RollNo)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.DeleteStudent(ctx, "S001"), school.ErrStoreIO)
}
