package school

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollment_Weighted(t *testing.T) {
	tests := []struct {
		internal, final, want float64
	}{
		{75, 88, 82.1},
		{0, 0, 0},
		{100, 100, 100},
		{100, 0, 30},
		{0, 100, 70},
		{62, 70, 67.6},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%v", tt.internal, tt.final), func(t *testing.T) {
			e := Enrollment{InternalMark: tt.internal, FinalMark: tt.final}
			assert.InDelta(t, tt.want, e.Weighted(), 1e-9)
			assert.InDelta(t, 0.3*tt.internal+0.7*tt.final, e.Weighted(), 1e-9)
		})
	}
}

func TestNewEnrollment_ZeroMarks(t *testing.T) {
	e := NewEnrollment("S001", "MTH101")
	assert.Equal(t, EnrollmentKey{RollNo: "S001", CourseCode: "MTH101"}, e.Key())
	assert.Zero(t, e.InternalMark)
	assert.Zero(t, e.FinalMark)
	assert.False(t, e.Passed())
}

func TestMarksInRange(t *testing.T) {
	assert.True(t, MarksInRange(0, 100))
	assert.True(t, MarksInRange(50.5, 49.5))
	assert.False(t, MarksInRange(-0.1, 50))
	assert.False(t, MarksInRange(50, 100.01))
}

func TestNewReport(t *testing.T) {
	s := Student{RollNo: "S001", Name: "Ava"}

	r := NewReport(s, []ReportLine{
		{CourseCode: "MTH101", Weighted: 60},
		{CourseCode: "SCI101", Weighted: 90},
	})
	assert.InDelta(t, 75.0, r.Average, 1e-9)
	assert.Equal(t, 2, r.Count)
	assert.Equal(t, 2, r.Passed)

	r = NewReport(s, []ReportLine{{Weighted: 49.99}, {Weighted: 50}})
	assert.Equal(t, 1, r.Passed)

	empty := NewReport(s, nil)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Average)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeOK, OutcomeOf(nil))
	assert.Equal(t, OutcomeConflict, OutcomeOf(E("InsertStudent", ErrConflict, errors.New("UNIQUE"))))
	assert.Equal(t, OutcomeNotFound, OutcomeOf(E("DeleteCourse", ErrNotFound, nil)))
	assert.Equal(t, OutcomeInvalid, OutcomeOf(E("UpdateMarks", ErrInvalidMarks, nil)))
	assert.Equal(t, OutcomeInconsistent, OutcomeOf(fmt.Errorf("wrap: %w", E("Enroll", ErrMirrorInconsistency, nil))))
	assert.Equal(t, OutcomeIOError, OutcomeOf(errors.New("disk full")))
}

func TestError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("driver said no")
	err := E("Enroll", ErrConflict, cause)

	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Enroll: constraint violation: driver said no", err.Error())
	assert.Equal(t, "Enroll: not found", E("Enroll", ErrNotFound, nil).Error())
}
