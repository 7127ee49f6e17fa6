package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pspschool/studentms/internal/domain/school"
)

func TestRenderer_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.Report(school.NewReport(
		school.Student{RollNo: "S001", Name: "Ava", Address: "12 Oak St"},
		[]school.ReportLine{
			{CourseCode: "MTH101", CourseTitle: "Maths", Internal: 75, Final: 88, Weighted: 82.1},
			{CourseCode: "SCI101", CourseTitle: "Science", Internal: 20, Final: 30, Weighted: 27},
		},
	))

	out := buf.String()
	assert.Contains(t, out, "Report for Ava (S001)")
	assert.Contains(t, out, "Maths")
	assert.Contains(t, out, "82.1")
	assert.Contains(t, out, "PASS")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Passed: 1/2")
}

func TestRenderer_EmptyReport(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Report(school.NewReport(school.Student{RollNo: "S009", Name: "Kai"}, nil))

	assert.Contains(t, buf.String(), "No enrollments yet.")
}

func TestRenderer_EmptyListing(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Courses(nil)

	assert.Contains(t, buf.String(), "Courses")
	assert.Contains(t, buf.String(), "(none)")
}

func TestCountsLine(t *testing.T) {
	assert.Equal(t, "Students: 05   Courses: 07   Enrolments: 12",
		CountsLine(school.Counts{Students: 5, Courses: 7, Enrollments: 12}))
}

func TestExplain(t *testing.T) {
	tests := []struct {
		err    error
		prefix string
	}{
		{school.E("x", school.ErrNotFound, nil), "Not found"},
		{school.E("x", school.ErrConflict, nil), "Rejected"},
		{school.E("x", school.ErrInvalidMarks, nil), "Marks must be"},
		{school.E("x", school.ErrMirrorInconsistency, nil), "Saved, but"},
		{errors.New("io"), "Database error"},
	}
	for _, tc := range tests {
		assert.Contains(t, Explain(tc.err), tc.prefix)
	}
}
