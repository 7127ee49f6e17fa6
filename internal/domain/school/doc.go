// Package school holds the domain model of the student management system.
//
// The package defines:
//
//   - Entities: Student, Course, Enrollment (a grade row)
//   - The derived weighted score and the per-student Report
//   - The Store contract implemented under infrastructure/persistence
//   - The error kinds every layer classifies failures into
//
// It has no dependencies outside the standard library.
//
// # Weighted score
//
// Every enrollment carries an internal and a final mark, both in [0, 100]:
//
//	e := school.Enrollment{RollNo: "S001", CourseCode: "MTH101", InternalMark: 75, FinalMark: 88}
//	e.Weighted() // 82.1
//
// A course is passed when the weighted score is at least PassThreshold.
package school
