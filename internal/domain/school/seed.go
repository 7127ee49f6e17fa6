package school

// Seed rows inserted by InitSchema into tables that are still empty.
var (
	SeedStudents = []Student{
		{RollNo: "S001", Name: "Ava", Address: "12 Oak St", Contact: "021-111"},
		{RollNo: "S002", Name: "Leo", Address: "34 Pine Ave", Contact: "021-222"},
		{RollNo: "S003", Name: "Mia", Address: "56 Willow Rd", Contact: "021-333"},
	}

	SeedCourses = []Course{
		{Code: "MTH101", Title: "Maths", Description: "Numbers and algebra", Teacher: "Mr. King"},
		{Code: "SCI101", Title: "Science", Description: "Intro science", Teacher: "Ms. Ray"},
		{Code: "ENG101", Title: "English", Description: "Reading & writing", Teacher: "Mrs. Lee"},
	}

	SeedEnrollments = []Enrollment{
		{RollNo: "S001", CourseCode: "MTH101", InternalMark: 75, FinalMark: 88},
		{RollNo: "S001", CourseCode: "SCI101", InternalMark: 62, FinalMark: 70},
		{RollNo: "S002", CourseCode: "ENG101", InternalMark: 80, FinalMark: 92},
		{RollNo: "S003", CourseCode: "MTH101", InternalMark: 55, FinalMark: 60},
	}
)
