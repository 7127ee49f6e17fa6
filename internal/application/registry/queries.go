package registry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/pkg/logger"
)

var (
	errUnknownStudent  = errors.New("unknown student")
	errUnknownCourse   = errors.New("unknown course")
	errNotEnrolled     = errors.New("student is not enrolled in course")
	errAlreadyEnrolled = errors.New("student is already enrolled in course")
)

// ══════════════════════════════════════════════════════════════════════════════
// READS (served from the mirror)
// ══════════════════════════════════════════════════════════════════════════════

// Students returns all students in mirror order.
func (r *Registry) Students() []school.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mirror.Students()
}

// Courses returns all courses in mirror order.
func (r *Registry) Courses() []school.Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mirror.Courses()
}

// Enrollments returns all enrollments in mirror order.
func (r *Registry) Enrollments() []school.Enrollment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mirror.Enrollments()
}

// Student returns one student or ErrNotFound.
func (r *Registry) Student(roll string) (school.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.mirror.Student(roll)
	if !ok {
		return school.Student{}, school.E("registry.Student", school.ErrNotFound, errUnknownStudent)
	}
	return s, nil
}

// Course returns one course or ErrNotFound.
func (r *Registry) Course(code string) (school.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.mirror.Course(code)
	if !ok {
		return school.Course{}, school.E("registry.Course", school.ErrNotFound, errUnknownCourse)
	}
	return c, nil
}

// Report returns the grade report of a student, or ErrNotFound.
// A cached copy is used when present; cache failures fall back to the mirror.
func (r *Registry) Report(ctx context.Context, roll string) (school.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.log.With(logger.Operation("Report"), logger.RollNo(roll))

	if !r.mirror.ExistsStudent(roll) {
		return school.Report{}, school.E("registry.Report", school.ErrNotFound, errUnknownStudent)
	}

	rep, hit, err := r.cache.Get(ctx, roll)
	if err != nil {
		log.Warn("report cache read failed", logger.Err(err))
	}
	if hit {
		return rep, nil
	}

	rep, _ = r.mirror.Report(roll)
	if err := r.cache.Set(ctx, rep); err != nil {
		log.Warn("report cache write failed", logger.Err(err))
	}
	return rep, nil
}

// MirrorCounts returns the row counts held in memory.
func (r *Registry) MirrorCounts() school.Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mirror.Counts()
}

// Counts returns the row counts of the durable store.
func (r *Registry) Counts(ctx context.Context) (school.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Counts(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// VERIFY
// ══════════════════════════════════════════════════════════════════════════════

// Verify compares the mirror with a fresh LoadAll. Row order is ignored.
// A mismatch returns an error wrapping ErrMirrorInconsistency that lists
// the differing keys.
func (r *Registry) Verify(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	diffs := Diff(stored, r.mirror.Snapshot())
	if len(diffs) == 0 {
		r.log.Debug("mirror verified")
		return nil
	}

	err = school.E("registry.Verify", school.ErrMirrorInconsistency,
		fmt.Errorf("%d difference(s): %s", len(diffs), strings.Join(diffs, "; ")))
	r.log.Error("mirror does not match store", logger.Err(err))
	return err
}

// Diff describes how mirror differs from store, one entry per key.
// Both snapshots may be in any order.
func Diff(store, mirror school.Snapshot) []string {
	var out []string

	out = append(out, diffSet("student",
		index(store.Students, func(s school.Student) string { return s.RollNo }),
		index(mirror.Students, func(s school.Student) string { return s.RollNo }))...)

	out = append(out, diffSet("course",
		index(store.Courses, func(c school.Course) string { return c.Code }),
		index(mirror.Courses, func(c school.Course) string { return c.Code }))...)

	out = append(out, diffSet("enrollment",
		index(store.Enrollments, func(e school.Enrollment) string { return e.RollNo + "/" + e.CourseCode }),
		index(mirror.Enrollments, func(e school.Enrollment) string { return e.RollNo + "/" + e.CourseCode }))...)

	slices.Sort(out)
	return out
}

func index[T any](rows []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(rows))
	for _, row := range rows {
		m[key(row)] = row
	}
	return m
}

func diffSet[T comparable](kind string, store, mirror map[string]T) []string {
	var out []string
	for k, sv := range store {
		mv, ok := mirror[k]
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("%s %s missing from mirror", kind, k))
		case mv != sv:
			out = append(out, fmt.Sprintf("%s %s differs", kind, k))
		}
	}
	for k := range mirror {
		if _, ok := store[k]; !ok {
			out = append(out, fmt.Sprintf("%s %s missing from store", kind, k))
		}
	}
	return out
}
