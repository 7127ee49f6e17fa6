// Package memory provides an in-process school.Store with the same
// constraint and cascade rules as the SQL backends, plus failure injection.
// It backs registry tests and the DB_DRIVER=memory dry-run mode.
package memory

import (
	"cmp"
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/pspschool/studentms/internal/domain/school"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("memory store is closed")

// Operation names accepted by Fail and passed to OnCommit.
const (
	OpInitSchema       = "InitSchema"
	OpLoadAll          = "LoadAll"
	OpCounts           = "Counts"
	OpInsertStudent    = "InsertStudent"
	OpInsertCourse     = "InsertCourse"
	OpEnroll           = "Enroll"
	OpUpdateMarks      = "UpdateMarks"
	OpUpdateStudent    = "UpdateStudent"
	OpUpdateCourse     = "UpdateCourse"
	OpDeleteStudent    = "DeleteStudent"
	OpDeleteCourse     = "DeleteCourse"
	OpDeleteEnrollment = "DeleteEnrollment"
)

// Store is a map-backed school.Store.
type Store struct {
	mu          sync.Mutex
	students    map[string]school.Student
	courses     map[string]school.Course
	enrollments map[school.EnrollmentKey]school.Enrollment

	failures map[string]error
	closed   bool

	// OnCommit, if set, runs after a write succeeded and before it returns.
	// The store lock is not held.
	OnCommit func(op string)
}

var _ school.Store = (*Store)(nil)

// New returns an empty, open store.
func New() *Store {
	return &Store{
		students:    make(map[string]school.Student),
		courses:     make(map[string]school.Course),
		enrollments: make(map[school.EnrollmentKey]school.Enrollment),
		failures:    make(map[string]error),
	}
}

// Fail makes every call of op return err wrapped as school.ErrStoreIO.
// A nil err clears the injection.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Close marks the store closed. Safe to call more than once.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// begin locks the store and returns the injected or closed error for op.
// The caller must call s.mu.Unlock.
func (s *Store) begin(op string) error {
	s.mu.Lock()
	if s.closed {
		return school.E("memory."+op, school.ErrStoreIO, ErrClosed)
	}
	if err, ok := s.failures[op]; ok {
		return school.E("memory."+op, school.ErrStoreIO, err)
	}
	return nil
}

func (s *Store) commit(op string) {
	if s.OnCommit != nil {
		s.OnCommit(op)
	}
}

// write runs fn under the lock and fires OnCommit when it succeeds.
func (s *Store) write(op string, fn func() error) error {
	if err := s.begin(op); err != nil {
		s.mu.Unlock()
		return err
	}
	err := fn()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.commit(op)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Schema & reads
// ─────────────────────────────────────────────────────────────────────────────

// InitSchema seeds each empty collection.
func (s *Store) InitSchema(ctx context.Context) error {
	if err := s.begin(OpInitSchema); err != nil {
		s.mu.Unlock()
		return school.E("memory.InitSchema", school.ErrSchema, err)
	}
	defer s.mu.Unlock()

	if len(s.students) == 0 {
		for _, st := range school.SeedStudents {
			s.students[st.RollNo] = st
		}
	}
	if len(s.courses) == 0 {
		for _, c := range school.SeedCourses {
			s.courses[c.Code] = c
		}
	}
	if len(s.enrollments) == 0 {
		for _, e := range school.SeedEnrollments {
			if !s.parentsExist(e.RollNo, e.CourseCode) {
				clear(s.enrollments)
				return school.E("memory.InitSchema", school.ErrSchema, errors.New("seed enrollment references a missing parent"))
			}
			s.enrollments[e.Key()] = e
		}
	}
	return nil
}

func (s *Store) parentsExist(roll, code string) bool {
	_, okS := s.students[roll]
	_, okC := s.courses[code]
	return okS && okC
}

// LoadAll returns every row ordered by key.
func (s *Store) LoadAll(ctx context.Context) (school.Snapshot, error) {
	if err := s.begin(OpLoadAll); err != nil {
		s.mu.Unlock()
		return school.Snapshot{}, err
	}
	defer s.mu.Unlock()

	var snap school.Snapshot
	for _, k := range slices.Sorted(maps.Keys(s.students)) {
		snap.Students = append(snap.Students, s.students[k])
	}
	for _, k := range slices.Sorted(maps.Keys(s.courses)) {
		snap.Courses = append(snap.Courses, s.courses[k])
	}
	keys := slices.SortedFunc(maps.Keys(s.enrollments), func(a, b school.EnrollmentKey) int {
		return cmp.Or(cmp.Compare(a.RollNo, b.RollNo), cmp.Compare(a.CourseCode, b.CourseCode))
	})
	for _, k := range keys {
		snap.Enrollments = append(snap.Enrollments, s.enrollments[k])
	}
	return snap, nil
}

// Counts returns the size of each collection.
func (s *Store) Counts(ctx context.Context) (school.Counts, error) {
	if err := s.begin(OpCounts); err != nil {
		s.mu.Unlock()
		return school.Counts{}, err
	}
	defer s.mu.Unlock()

	return school.Counts{
		Students:    len(s.students),
		Courses:     len(s.courses),
		Enrollments: len(s.enrollments),
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// InsertStudent adds st unless the roll number exists.
func (s *Store) InsertStudent(ctx context.Context, st school.Student) error {
	return s.write(OpInsertStudent, func() error {
		if _, ok := s.students[st.RollNo]; ok {
			return school.E("memory.InsertStudent", school.ErrConflict, nil)
		}
		s.students[st.RollNo] = st
		return nil
	})
}

// InsertCourse adds c unless the code exists.
func (s *Store) InsertCourse(ctx context.Context, c school.Course) error {
	return s.write(OpInsertCourse, func() error {
		if _, ok := s.courses[c.Code]; ok {
			return school.E("memory.InsertCourse", school.ErrConflict, nil)
		}
		s.courses[c.Code] = c
		return nil
	})
}

// Enroll adds a zero-mark enrollment.
func (s *Store) Enroll(ctx context.Context, roll, code string) error {
	return s.write(OpEnroll, func() error {
		e := school.NewEnrollment(roll, code)
		if _, ok := s.enrollments[e.Key()]; ok {
			return school.E("memory.Enroll", school.ErrConflict, nil)
		}
		if !s.parentsExist(roll, code) {
			return school.E("memory.Enroll", school.ErrConflict, errors.New("missing parent"))
		}
		s.enrollments[e.Key()] = e
		return nil
	})
}

// UpdateMarks overwrites the marks of an enrollment.
func (s *Store) UpdateMarks(ctx context.Context, roll, code string, internal, final float64) error {
	return s.write(OpUpdateMarks, func() error {
		k := school.EnrollmentKey{RollNo: roll, CourseCode: code}
		e, ok := s.enrollments[k]
		if !ok {
			return school.E("memory.UpdateMarks", school.ErrNotFound, nil)
		}
		if !school.MarksInRange(internal, final) {
			return school.E("memory.UpdateMarks", school.ErrInvalidMarks, nil)
		}
		e.InternalMark, e.FinalMark = internal, final
		s.enrollments[k] = e
		return nil
	})
}

// UpdateStudent replaces the student's mutable fields.
func (s *Store) UpdateStudent(ctx context.Context, st school.Student) error {
	return s.write(OpUpdateStudent, func() error {
		if _, ok := s.students[st.RollNo]; !ok {
			return school.E("memory.UpdateStudent", school.ErrNotFound, nil)
		}
		s.students[st.RollNo] = st
		return nil
	})
}

// UpdateCourse replaces the course's mutable fields.
func (s *Store) UpdateCourse(ctx context.Context, c school.Course) error {
	return s.write(OpUpdateCourse, func() error {
		if _, ok := s.courses[c.Code]; !ok {
			return school.E("memory.UpdateCourse", school.ErrNotFound, nil)
		}
		s.courses[c.Code] = c
		return nil
	})
}

// DeleteStudent removes a student and its enrollments.
func (s *Store) DeleteStudent(ctx context.Context, roll string) error {
	return s.write(OpDeleteStudent, func() error {
		if _, ok := s.students[roll]; !ok {
			return school.E("memory.DeleteStudent", school.ErrNotFound, nil)
		}
		delete(s.students, roll)
		maps.DeleteFunc(s.enrollments, func(k school.EnrollmentKey, _ school.Enrollment) bool {
			return k.RollNo == roll
		})
		return nil
	})
}

// DeleteCourse removes a course and its enrollments.
func (s *Store) DeleteCourse(ctx context.Context, code string) error {
	return s.write(OpDeleteCourse, func() error {
		if _, ok := s.courses[code]; !ok {
			return school.E("memory.DeleteCourse", school.ErrNotFound, nil)
		}
		delete(s.courses, code)
		maps.DeleteFunc(s.enrollments, func(k school.EnrollmentKey, _ school.Enrollment) bool {
			return k.CourseCode == code
		})
		return nil
	})
}

// DeleteEnrollment removes one enrollment.
func (s *Store) DeleteEnrollment(ctx context.Context, roll, code string) error {
	return s.write(OpDeleteEnrollment, func() error {
		k := school.EnrollmentKey{RollNo: roll, CourseCode: code}
		if _, ok := s.enrollments[k]; !ok {
			return school.E("memory.DeleteEnrollment", school.ErrNotFound, nil)
		}
		delete(s.enrollments, k)
		return nil
	})
}
