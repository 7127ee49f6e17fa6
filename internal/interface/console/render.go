package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pspschool/studentms/internal/domain/school"
)

// Palette.
var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorBorder  = lipgloss.Color("#16858E")
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#2C4A54")
)

var styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Banner  lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Header:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1),
	Cell:    lipgloss.NewStyle().Padding(0, 1),
	Banner: lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorBorder).
		Padding(0, 4).
		Align(lipgloss.Center),
}

// Renderer writes listings, reports and status lines to w.
type Renderer struct {
	w io.Writer
}

// NewRenderer returns a renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Banner prints the welcome box.
func (r *Renderer) Banner() {
	fmt.Fprintln(r.w, styles.Banner.Render("Student Management System\n"+styles.Muted.Render("PSPSchool")))
}

// Counts prints the counters line shown above the menu.
func (r *Renderer) Counts(c school.Counts) {
	fmt.Fprintln(r.w, CountsLine(c))
}

// CountsLine formats the counters shown above the menu.
func CountsLine(c school.Counts) string {
	return fmt.Sprintf("Students: %02d   Courses: %02d   Enrolments: %02d", c.Students, c.Courses, c.Enrollments)
}

// Success prints a confirmation.
func (r *Renderer) Success(msg string) {
	fmt.Fprintln(r.w, styles.Success.Render("✓ "+msg))
}

// Warning prints a soft rejection, such as a failed pre-check.
func (r *Renderer) Warning(msg string) {
	fmt.Fprintln(r.w, styles.Warning.Render("! "+msg))
}

// Failure prints err as a user-facing message.
func (r *Renderer) Failure(err error) {
	fmt.Fprintln(r.w, styles.Error.Render("✗ "+Explain(err)))
}

// Explain turns an operation error into one line for the user.
func Explain(err error) string {
	switch school.OutcomeOf(err) {
	case school.OutcomeOK:
		return "done"
	case school.OutcomeNotFound:
		return "Not found: " + err.Error()
	case school.OutcomeConflict:
		return "Rejected (duplicate or missing reference): " + err.Error()
	case school.OutcomeInvalid:
		return "Marks must be between 0 and 100."
	case school.OutcomeInconsistent:
		return "Saved, but the in-memory view had to be reloaded: " + err.Error()
	default:
		return "Database error: " + err.Error()
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LISTINGS
// ══════════════════════════════════════════════════════════════════════════════

// Students prints the student table.
func (r *Renderer) Students(rows []school.Student) {
	r.table("Students", []string{"Roll No", "Name", "Address", "Contact"}, len(rows), func(i int) []string {
		s := rows[i]
		return []string{s.RollNo, s.Name, s.Address, s.Contact}
	})
}

// Courses prints the course table.
func (r *Renderer) Courses(rows []school.Course) {
	r.table("Courses", []string{"Code", "Title", "Description", "Teacher"}, len(rows), func(i int) []string {
		c := rows[i]
		return []string{c.Code, c.Title, c.Description, c.Teacher}
	})
}

// Enrollments prints every enrollment with its weighted score.
func (r *Renderer) Enrollments(rows []school.Enrollment) {
	r.table("Enrollments", []string{"Roll No", "Course", "Internal", "Final", "Weighted", "Result"}, len(rows), func(i int) []string {
		e := rows[i]
		return []string{e.RollNo, e.CourseCode, mark(e.InternalMark), mark(e.FinalMark), mark(e.Weighted()), result(e.Passed())}
	})
}

// Report prints a student's grade report.
func (r *Renderer) Report(rep school.Report) {
	s := rep.Student
	fmt.Fprintln(r.w, styles.Title.Render(fmt.Sprintf("Report for %s (%s)", s.Name, s.RollNo)))
	if s.Address != "" || s.Contact != "" {
		fmt.Fprintln(r.w, styles.Muted.Render(strings.TrimSpace(s.Address+"  "+s.Contact)))
	}

	if rep.Count == 0 {
		fmt.Fprintln(r.w, styles.Muted.Render("No enrollments yet."))
		return
	}

	t := newTable([]string{"Course", "Title", "Internal", "Final", "Weighted", "Result"})
	for _, l := range rep.Lines {
		t.Row(l.CourseCode, l.CourseTitle, mark(l.Internal), mark(l.Final), mark(l.Weighted), result(l.Weighted >= school.PassThreshold))
	}
	fmt.Fprintln(r.w, t.String())
	fmt.Fprintf(r.w, "Average: %s   Passed: %d/%d\n", mark(rep.Average), rep.Passed, rep.Count)
}

func (r *Renderer) table(title string, headers []string, n int, row func(int) []string) {
	fmt.Fprintln(r.w, styles.Title.Render(title))
	if n == 0 {
		fmt.Fprintln(r.w, styles.Muted.Render("(none)"))
		return
	}
	t := newTable(headers)
	for i := range n {
		t.Row(row(i)...)
	}
	fmt.Fprintln(r.w, t.String())
}

func newTable(headers []string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			return styles.Cell
		})
}

func mark(m float64) string { return fmt.Sprintf("%.1f", m) }

func result(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
