package registry

import (
	"context"

	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MUTATING OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// AddStudent creates a student. ErrConflict if the roll number is taken.
func (r *Registry) AddStudent(ctx context.Context, s school.Student) error {
	const name = "AddStudent"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.RollNo(s.RollNo)},
		precheck: func() error {
			if r.mirror.ExistsStudent(s.RollNo) {
				return school.E("registry."+name, school.ErrConflict, nil)
			}
			return nil
		},
		write:      func(ctx context.Context) error { return r.store.InsertStudent(ctx, s) },
		apply:      func() bool { return r.mirror.InsertStudentIfAbsent(s) },
		invalidate: invalidation{rolls: []string{s.RollNo}},
	})
}

// AddCourse creates a course. ErrConflict if the code is taken.
func (r *Registry) AddCourse(ctx context.Context, c school.Course) error {
	const name = "AddCourse"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.CourseCode(c.Code)},
		precheck: func() error {
			if r.mirror.ExistsCourse(c.Code) {
				return school.E("registry."+name, school.ErrConflict, nil)
			}
			return nil
		},
		write: func(ctx context.Context) error { return r.store.InsertCourse(ctx, c) },
		apply: func() bool { return r.mirror.InsertCourseIfAbsent(c) },
	})
}

// Enroll links a student to a course with zero marks. ErrConflict if either
// side is missing or the pair is already enrolled.
func (r *Registry) Enroll(ctx context.Context, roll, code string) error {
	const name = "Enroll"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.RollNo(roll), logger.CourseCode(code)},
		precheck: func() error {
			switch {
			case !r.mirror.ExistsStudent(roll):
				return school.E("registry."+name, school.ErrConflict, errUnknownStudent)
			case !r.mirror.ExistsCourse(code):
				return school.E("registry."+name, school.ErrConflict, errUnknownCourse)
			case r.mirror.AlreadyEnrolled(roll, code):
				return school.E("registry."+name, school.ErrConflict, errAlreadyEnrolled)
			}
			return nil
		},
		write: func(ctx context.Context) error { return r.store.Enroll(ctx, roll, code) },
		apply: func() bool {
			r.mirror.InsertEnrollment(roll, code)
			return true
		},
		invalidate: invalidation{rolls: []string{roll}},
	})
}

// EnterMarks sets both marks of an enrollment. Out-of-range marks fail with
// ErrInvalidMarks before the store is called.
func (r *Registry) EnterMarks(ctx context.Context, roll, code string, internal, final float64) error {
	const name = "EnterMarks"
	return r.run(ctx, mutation{
		name: name,
		fields: []logger.Field{
			logger.RollNo(roll), logger.CourseCode(code),
			logger.Float64("internal", internal), logger.Float64("final", final),
		},
		precheck: func() error {
			if !school.MarksInRange(internal, final) {
				return school.E("registry."+name, school.ErrInvalidMarks, nil)
			}
			if !r.mirror.AlreadyEnrolled(roll, code) {
				return school.E("registry."+name, school.ErrNotFound, errNotEnrolled)
			}
			return nil
		},
		write:      func(ctx context.Context) error { return r.store.UpdateMarks(ctx, roll, code, internal, final) },
		apply:      func() bool { return r.mirror.UpdateMarks(roll, code, internal, final) },
		invalidate: invalidation{rolls: []string{roll}},
	})
}

// UpdateStudent rewrites a student's name, address and contact.
func (r *Registry) UpdateStudent(ctx context.Context, s school.Student) error {
	const name = "UpdateStudent"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.RollNo(s.RollNo)},
		precheck: func() error {
			if !r.mirror.ExistsStudent(s.RollNo) {
				return school.E("registry."+name, school.ErrNotFound, errUnknownStudent)
			}
			return nil
		},
		write:      func(ctx context.Context) error { return r.store.UpdateStudent(ctx, s) },
		apply:      func() bool { return r.mirror.ReplaceStudent(s) },
		invalidate: invalidation{rolls: []string{s.RollNo}},
	})
}

// UpdateCourse rewrites a course's title, description and teacher.
func (r *Registry) UpdateCourse(ctx context.Context, c school.Course) error {
	const name = "UpdateCourse"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.CourseCode(c.Code)},
		precheck: func() error {
			if !r.mirror.ExistsCourse(c.Code) {
				return school.E("registry."+name, school.ErrNotFound, errUnknownCourse)
			}
			return nil
		},
		write:      func(ctx context.Context) error { return r.store.UpdateCourse(ctx, c) },
		apply:      func() bool { return r.mirror.ReplaceCourse(c) },
		invalidate: invalidation{all: true},
	})
}

// DeleteStudent removes a student and all of its enrollments.
func (r *Registry) DeleteStudent(ctx context.Context, roll string) error {
	const name = "DeleteStudent"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.RollNo(roll)},
		precheck: func() error {
			if !r.mirror.ExistsStudent(roll) {
				return school.E("registry."+name, school.ErrNotFound, errUnknownStudent)
			}
			return nil
		},
		write:      func(ctx context.Context) error { return r.store.DeleteStudent(ctx, roll) },
		apply:      func() bool { return r.mirror.RemoveStudent(roll) },
		invalidate: invalidation{rolls: []string{roll}},
	})
}

// DeleteCourse removes a course and all enrollments in it.
func (r *Registry) DeleteCourse(ctx context.Context, code string) error {
	const name = "DeleteCourse"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.CourseCode(code)},
		precheck: func() error {
			if !r.mirror.ExistsCourse(code) {
				return school.E("registry."+name, school.ErrNotFound, errUnknownCourse)
			}
			return nil
		},
		write:      func(ctx context.Context) error { return r.store.DeleteCourse(ctx, code) },
		apply:      func() bool { return r.mirror.RemoveCourse(code) },
		invalidate: invalidation{all: true},
	})
}

// DeleteEnrollment removes a single enrollment.
func (r *Registry) DeleteEnrollment(ctx context.Context, roll, code string) error {
	const name = "DeleteEnrollment"
	return r.run(ctx, mutation{
		name:   name,
		fields: []logger.Field{logger.RollNo(roll), logger.CourseCode(code)},
		precheck: func() error {
			if !r.mirror.AlreadyEnrolled(roll, code) {
				return school.E("registry."+name, school.ErrNotFound, errNotEnrolled)
			}
			return nil
		},
		write:      func(ctx context.Context) error { return r.store.DeleteEnrollment(ctx, roll, code) },
		apply:      func() bool { return r.mirror.RemoveEnrollment(roll, code) },
		invalidate: invalidation{rolls: []string{roll}},
	})
}
