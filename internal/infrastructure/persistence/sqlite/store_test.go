package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pspschool/studentms/internal/domain/school"
)

func openTemp(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "school.db")
	s, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openSeeded(t *testing.T) *Store {
	t.Helper()

	s := openTemp(t)
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	s, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.Equal(t, path, s.Path())
}

func TestOpen_Failures(t *testing.T) {
	_, err := Open(context.Background(), "", Options{})
	assert.ErrorIs(t, err, school.ErrNotOpened)

	missingDir := filepath.Join(t.TempDir(), "no", "such", "dir", "x.db")
	_, err = Open(context.Background(), missingDir, Options{})
	assert.ErrorIs(t, err, school.ErrNotOpened)
}

func TestInitSchema_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.Counts{Students: 3, Courses: 3, Enrollments: 4}, c)

	require.NoError(t, s.InitSchema(ctx))
	c, err = s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.Counts{Students: 3, Courses: 3, Enrollments: 4}, c)
}

func TestInitSchema_SeedsOnlyEmptyTables(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	require.NoError(t, s.DeleteEnrollment(ctx, "S001", "MTH101"))
	require.NoError(t, s.InsertCourse(ctx, school.Course{Code: "ART101", Title: "Art"}))

	require.NoError(t, s.InitSchema(ctx))

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.Counts{Students: 3, Courses: 4, Enrollments: 3}, c)
}

func TestInitSchema_OrphanSeedIsSchemaFailure(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.db.ExecContext(ctx, schemaSQL)
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `INSERT INTO students (roll_no, name) VALUES ('S999', 'Zed')`)
	require.NoError(t, err)

	err = s.InitSchema(ctx)
	assert.ErrorIs(t, err, school.ErrSchema)
}

func TestLoadAll_OrderedByKey(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	require.NoError(t, s.InsertStudent(ctx, school.Student{RollNo: "S000", Name: "Zoe"}))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Students, 4)
	assert.Equal(t, "S000", snap.Students[0].RollNo)
	assert.Equal(t, "", snap.Students[0].Address)

	codes := make([]string, 0, len(snap.Courses))
	for _, c := range snap.Courses {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"ENG101", "MTH101", "SCI101"}, codes)

	assert.Equal(t, school.Enrollment{RollNo: "S001", CourseCode: "MTH101", InternalMark: 75, FinalMark: 88}, snap.Enrollments[0])
}

func TestInsert_Conflicts(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	err := s.InsertStudent(ctx, school.Student{RollNo: "S001", Name: "Dup"})
	assert.ErrorIs(t, err, school.ErrConflict)

	err = s.InsertCourse(ctx, school.Course{Code: "MTH101", Title: "Dup"})
	assert.ErrorIs(t, err, school.ErrConflict)

	err = s.Enroll(ctx, "S001", "MTH101")
	assert.ErrorIs(t, err, school.ErrConflict)

	err = s.Enroll(ctx, "S404", "MTH101")
	assert.ErrorIs(t, err, school.ErrConflict, "missing student is a foreign key violation")

	err = s.Enroll(ctx, "S001", "XXX999")
	assert.ErrorIs(t, err, school.ErrConflict)
}

func TestEnroll_ZeroMarks(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	require.NoError(t, s.Enroll(ctx, "S002", "MTH101"))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Enrollments, school.NewEnrollment("S002", "MTH101"))
}

func TestUpdateMarks(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	require.NoError(t, s.UpdateMarks(ctx, "S001", "MTH101", 90, 95))

	err := s.UpdateMarks(ctx, "S002", "MTH101", 10, 10)
	assert.ErrorIs(t, err, school.ErrNotFound)

	err = s.UpdateMarks(ctx, "S001", "MTH101", 101, 10)
	assert.ErrorIs(t, err, school.ErrInvalidMarks)

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Enrollments, school.Enrollment{RollNo: "S001", CourseCode: "MTH101", InternalMark: 90, FinalMark: 95})
}

func TestUpdateEntities(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	require.NoError(t, s.UpdateStudent(ctx, school.Student{RollNo: "S002", Name: "Leon", Address: "1 New Rd", Contact: "021-999"}))
	require.NoError(t, s.UpdateCourse(ctx, school.Course{Code: "ENG101", Title: "English Lit", Description: "Novels", Teacher: "Mr. Poe"}))

	assert.ErrorIs(t, s.UpdateStudent(ctx, school.Student{RollNo: "S404", Name: "Ghost"}), school.ErrNotFound)
	assert.ErrorIs(t, s.UpdateCourse(ctx, school.Course{Code: "ZZZ000", Title: "Ghost"}), school.ErrNotFound)

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Students, school.Student{RollNo: "S002", Name: "Leon", Address: "1 New Rd", Contact: "021-999"})
	assert.Contains(t, snap.Courses, school.Course{Code: "ENG101", Title: "English Lit", Description: "Novels", Teacher: "Mr. Poe"})
}

func TestDelete_Cascades(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t)

	require.NoError(t, s.DeleteCourse(ctx, "MTH101"))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	for _, e := range snap.Enrollments {
		assert.NotEqual(t, "MTH101", e.CourseCode)
	}
	assert.Len(t, snap.Enrollments, 2)

	require.NoError(t, s.DeleteStudent(ctx, "S001"))
	snap, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []school.Enrollment{{RollNo: "S002", CourseCode: "ENG101", InternalMark: 80, FinalMark: 92}}, snap.Enrollments)

	assert.ErrorIs(t, s.DeleteStudent(ctx, "S001"), school.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCourse(ctx, "MTH101"), school.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEnrollment(ctx, "S003", "MTH101"), school.ErrNotFound)
	require.NoError(t, s.DeleteEnrollment(ctx, "S002", "ENG101"))
}

func TestClose_Idempotent(t *testing.T) {
	s := openSeeded(t)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	err := s.InsertStudent(context.Background(), school.Student{RollNo: "S010", Name: "Late"})
	assert.ErrorIs(t, err, school.ErrStoreIO)
	assert.ErrorIs(t, err, ErrClosed)

	var nilStore *Store
	assert.NoError(t, nilStore.Close())
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "school.db")

	s, err := Open(ctx, path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.InsertStudent(ctx, school.Student{RollNo: "S100", Name: "Kai"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, Options{})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.InitSchema(ctx))

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Students)
}
