// Package mirror implements the in-process read model of the school store.
//
// The mirror keeps one ordered slice per entity and is patched only after the
// durable store confirmed the same change. It performs no locking; the
// registry serialises access.
package mirror

import (
	"slices"

	"github.com/pspschool/studentms/internal/domain/school"
)

// Mirror is the in-memory copy of students, courses and enrollments.
type Mirror struct {
	students    []school.Student
	courses     []school.Course
	enrollments []school.Enrollment
}

// New returns an empty mirror.
func New() *Mirror {
	return &Mirror{}
}

// Load replaces the whole content with a copy of snap.
func (m *Mirror) Load(snap school.Snapshot) {
	m.students = slices.Clone(snap.Students)
	m.courses = slices.Clone(snap.Courses)
	m.enrollments = slices.Clone(snap.Enrollments)
}

// Snapshot returns a deep copy of the current content in mirror order.
func (m *Mirror) Snapshot() school.Snapshot {
	return school.Snapshot{
		Students:    m.Students(),
		Courses:     m.Courses(),
		Enrollments: m.Enrollments(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Membership
// ─────────────────────────────────────────────────────────────────────────────

func (m *Mirror) studentIndex(roll string) int {
	return slices.IndexFunc(m.students, func(s school.Student) bool { return s.RollNo == roll })
}

func (m *Mirror) courseIndex(code string) int {
	return slices.IndexFunc(m.courses, func(c school.Course) bool { return c.Code == code })
}

func (m *Mirror) enrollmentIndex(roll, code string) int {
	return slices.IndexFunc(m.enrollments, func(e school.Enrollment) bool {
		return e.RollNo == roll && e.CourseCode == code
	})
}

// ExistsStudent reports whether a student with roll is present.
func (m *Mirror) ExistsStudent(roll string) bool {
	return m.studentIndex(roll) >= 0
}

// ExistsCourse reports whether a course with code is present.
func (m *Mirror) ExistsCourse(code string) bool {
	return m.courseIndex(code) >= 0
}

// AlreadyEnrolled reports whether the (roll, code) enrollment is present.
func (m *Mirror) AlreadyEnrolled(roll, code string) bool {
	return m.enrollmentIndex(roll, code) >= 0
}

// ─────────────────────────────────────────────────────────────────────────────
// Inserts
// ─────────────────────────────────────────────────────────────────────────────

// InsertStudentIfAbsent appends s unless its roll number is taken.
func (m *Mirror) InsertStudentIfAbsent(s school.Student) bool {
	if m.ExistsStudent(s.RollNo) {
		return false
	}
	m.students = append(m.students, s)
	return true
}

// InsertCourseIfAbsent appends c unless its code is taken.
func (m *Mirror) InsertCourseIfAbsent(c school.Course) bool {
	if m.ExistsCourse(c.Code) {
		return false
	}
	m.courses = append(m.courses, c)
	return true
}

// InsertEnrollment appends a zero-mark enrollment. It does not re-check the
// parents or duplicates; the store already accepted the same insert.
func (m *Mirror) InsertEnrollment(roll, code string) {
	m.enrollments = append(m.enrollments, school.NewEnrollment(roll, code))
}

// ─────────────────────────────────────────────────────────────────────────────
// Updates
// ─────────────────────────────────────────────────────────────────────────────

// UpdateMarks overwrites the marks of an existing enrollment.
// Range checks happen before this call.
func (m *Mirror) UpdateMarks(roll, code string, internal, final float64) bool {
	i := m.enrollmentIndex(roll, code)
	if i < 0 {
		return false
	}
	m.enrollments[i].InternalMark = internal
	m.enrollments[i].FinalMark = final
	return true
}

// ReplaceStudent overwrites the student with the same roll number.
func (m *Mirror) ReplaceStudent(s school.Student) bool {
	i := m.studentIndex(s.RollNo)
	if i < 0 {
		return false
	}
	m.students[i] = s
	return true
}

// ReplaceCourse overwrites the course with the same code.
func (m *Mirror) ReplaceCourse(c school.Course) bool {
	i := m.courseIndex(c.Code)
	if i < 0 {
		return false
	}
	m.courses[i] = c
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Removals (same cascade as the store's foreign keys)
// ─────────────────────────────────────────────────────────────────────────────

// RemoveStudent deletes the student and every enrollment with its roll
// number. It reports whether the student was present.
func (m *Mirror) RemoveStudent(roll string) bool {
	i := m.studentIndex(roll)
	if i < 0 {
		return false
	}
	m.students = slices.Delete(m.students, i, i+1)
	m.enrollments = slices.DeleteFunc(m.enrollments, func(e school.Enrollment) bool {
		return e.RollNo == roll
	})
	return true
}

// RemoveCourse deletes the course and every enrollment with its code.
// It reports whether the course was present.
func (m *Mirror) RemoveCourse(code string) bool {
	i := m.courseIndex(code)
	if i < 0 {
		return false
	}
	m.courses = slices.Delete(m.courses, i, i+1)
	m.enrollments = slices.DeleteFunc(m.enrollments, func(e school.Enrollment) bool {
		return e.CourseCode == code
	})
	return true
}

// RemoveEnrollment deletes a single enrollment.
func (m *Mirror) RemoveEnrollment(roll, code string) bool {
	i := m.enrollmentIndex(roll, code)
	if i < 0 {
		return false
	}
	m.enrollments = slices.Delete(m.enrollments, i, i+1)
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// Students returns a copy of all students.
func (m *Mirror) Students() []school.Student {
	return slices.Clone(m.students)
}

// Courses returns a copy of all courses.
func (m *Mirror) Courses() []school.Course {
	return slices.Clone(m.courses)
}

// Enrollments returns a copy of all enrollments.
func (m *Mirror) Enrollments() []school.Enrollment {
	return slices.Clone(m.enrollments)
}

// Student returns the student with roll.
func (m *Mirror) Student(roll string) (school.Student, bool) {
	i := m.studentIndex(roll)
	if i < 0 {
		return school.Student{}, false
	}
	return m.students[i], true
}

// Course returns the course with code.
func (m *Mirror) Course(code string) (school.Course, bool) {
	i := m.courseIndex(code)
	if i < 0 {
		return school.Course{}, false
	}
	return m.courses[i], true
}

// EnrollmentsOf returns the enrollments of one student, in mirror order.
func (m *Mirror) EnrollmentsOf(roll string) []school.Enrollment {
	var out []school.Enrollment
	for _, e := range m.enrollments {
		if e.RollNo == roll {
			out = append(out, e)
		}
	}
	return out
}

// Counts returns the number of rows per entity.
func (m *Mirror) Counts() school.Counts {
	return school.Counts{
		Students:    len(m.students),
		Courses:     len(m.courses),
		Enrollments: len(m.enrollments),
	}
}

// Report builds the grade report for roll. The second result is false when
// the student is unknown. A course missing from the mirror is shown by code.
func (m *Mirror) Report(roll string) (school.Report, bool) {
	s, ok := m.Student(roll)
	if !ok {
		return school.Report{}, false
	}

	var lines []school.ReportLine
	for _, e := range m.enrollments {
		if e.RollNo != roll {
			continue
		}
		title := e.CourseCode
		if c, ok := m.Course(e.CourseCode); ok {
			title = c.Title
		}
		lines = append(lines, school.ReportLine{
			CourseCode:  e.CourseCode,
			CourseTitle: title,
			Internal:    e.InternalMark,
			Final:       e.FinalMark,
			Weighted:    e.Weighted(),
		})
	}

	return school.NewReport(s, lines), true
}
