package school

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Weights and thresholds for the derived score.
const (
	InternalWeight = 0.3
	FinalWeight    = 0.7

	// PassThreshold is the weighted score at or above which a course counts
	// as passed in a report.
	PassThreshold = 50.0

	MinMark = 0.0
	MaxMark = 100.0
)

// Student is identified by RollNo (S + 3-6 digits). RollNo never changes
// after creation.
type Student struct {
	RollNo  string `json:"roll_no"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// Course is identified by Code (3 letters + 3 digits).
type Course struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Teacher     string `json:"teacher"`
}

// EnrollmentKey is the composite identity of an Enrollment.
type EnrollmentKey struct {
	RollNo     string
	CourseCode string
}

// Enrollment links one Student to one Course and carries the marks.
type Enrollment struct {
	RollNo       string  `json:"roll_no"`
	CourseCode   string  `json:"course_code"`
	InternalMark float64 `json:"internal_mark"`
	FinalMark    float64 `json:"final_mark"`
}

// NewEnrollment returns a fresh enrollment with both marks at zero.
func NewEnrollment(roll, code string) Enrollment {
	return Enrollment{RollNo: roll, CourseCode: code}
}

// Key returns the composite identity.
func (e Enrollment) Key() EnrollmentKey {
	return EnrollmentKey{RollNo: e.RollNo, CourseCode: e.CourseCode}
}

// Weighted returns 0.3*internal + 0.7*final.
func (e Enrollment) Weighted() float64 {
	return InternalWeight*e.InternalMark + FinalWeight*e.FinalMark
}

// Passed reports whether the weighted score reaches PassThreshold.
func (e Enrollment) Passed() bool {
	return e.Weighted() >= PassThreshold
}

// MarkInRange reports whether m is within [0, 100].
func MarkInRange(m float64) bool {
	return m >= MinMark && m <= MaxMark
}

// MarksInRange reports whether both marks are within [0, 100].
func MarksInRange(internal, final float64) bool {
	return MarkInRange(internal) && MarkInRange(final)
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATES
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is the full content of a store or mirror, in store order.
type Snapshot struct {
	Students    []Student
	Courses     []Course
	Enrollments []Enrollment
}

// Counts holds the row count of each table.
type Counts struct {
	Students    int `json:"students"`
	Courses     int `json:"courses"`
	Enrollments int `json:"enrollments"`
}

// Counts returns the row counts of the snapshot.
func (s Snapshot) Counts() Counts {
	return Counts{
		Students:    len(s.Students),
		Courses:     len(s.Courses),
		Enrollments: len(s.Enrollments),
	}
}

// ReportLine is one enrolled course in a student report.
type ReportLine struct {
	CourseCode  string  `json:"course_code"`
	CourseTitle string  `json:"course_title"`
	Internal    float64 `json:"internal"`
	Final       float64 `json:"final"`
	Weighted    float64 `json:"weighted"`
}

// Report is the per-student grade summary.
type Report struct {
	Student Student      `json:"student"`
	Lines   []ReportLine `json:"lines"`

	// Average is the mean weighted score; zero when Count is zero.
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Passed  int     `json:"passed"`
}

// NewReport aggregates lines into a report.
func NewReport(s Student, lines []ReportLine) Report {
	r := Report{Student: s, Lines: lines, Count: len(lines)}
	if len(lines) == 0 {
		return r
	}
	total := 0.0
	for _, l := range lines {
		total += l.Weighted
		if l.Weighted >= PassThreshold {
			r.Passed++
		}
	}
	r.Average = total / float64(len(lines))
	return r
}
