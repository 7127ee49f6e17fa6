package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pspschool/studentms/internal/domain/school"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

func TestInitSchema_Seed(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, school.SeedStudents, snap.Students)
	assert.Equal(t, school.Counts{Students: 3, Courses: 3, Enrollments: 4}, snap.Counts())

	require.NoError(t, s.InitSchema(ctx))
	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Enrollments)
}

func TestConstraints(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	assert.ErrorIs(t, s.InsertStudent(ctx, school.Student{RollNo: "S001"}), school.ErrConflict)
	assert.ErrorIs(t, s.InsertCourse(ctx, school.Course{Code: "SCI101"}), school.ErrConflict)
	assert.ErrorIs(t, s.Enroll(ctx, "S001", "MTH101"), school.ErrConflict)
	assert.ErrorIs(t, s.Enroll(ctx, "S404", "MTH101"), school.ErrConflict)
	assert.ErrorIs(t, s.UpdateMarks(ctx, "S002", "MTH101", 1, 1), school.ErrNotFound)
	assert.ErrorIs(t, s.UpdateMarks(ctx, "S001", "MTH101", -1, 1), school.ErrInvalidMarks)
	assert.ErrorIs(t, s.DeleteEnrollment(ctx, "S002", "MTH101"), school.ErrNotFound)
}

func TestCascade(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	require.NoError(t, s.DeleteStudent(ctx, "S001"))

	snap, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Enrollments, 2)
	for _, e := range snap.Enrollments {
		assert.NotEqual(t, "S001", e.RollNo)
	}
}

func TestFailAndOnCommit(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)

	var committed []string
	s.OnCommit = func(op string) { committed = append(committed, op) }

	boom := errors.New("disk on fire")
	s.Fail(OpInsertStudent, boom)

	err := s.InsertStudent(ctx, school.Student{RollNo: "S010", Name: "Ana"})
	assert.ErrorIs(t, err, school.ErrStoreIO)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, committed)

	s.Fail(OpInsertStudent, nil)
	require.NoError(t, s.InsertStudent(ctx, school.Student{RollNo: "S010", Name: "Ana"}))
	assert.Equal(t, []string{OpInsertStudent}, committed)
}

func TestClose(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.LoadAll(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
