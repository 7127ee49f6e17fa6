// Package console is the interactive front end: a numbered main menu,
// validated prompts and rendered tables. All changes go through the
// registry; the console never touches a store directly.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pspschool/studentms/internal/domain/school"
	"github.com/pspschool/studentms/pkg/logger"
)

// Service is the registry surface the menu drives.
type Service interface {
	Students() []school.Student
	Courses() []school.Course
	Enrollments() []school.Enrollment
	Student(roll string) (school.Student, error)
	Course(code string) (school.Course, error)
	Report(ctx context.Context, roll string) (school.Report, error)
	MirrorCounts() school.Counts

	AddStudent(ctx context.Context, s school.Student) error
	AddCourse(ctx context.Context, c school.Course) error
	Enroll(ctx context.Context, roll, code string) error
	EnterMarks(ctx context.Context, roll, code string, internal, final float64) error
	UpdateStudent(ctx context.Context, s school.Student) error
	UpdateCourse(ctx context.Context, c school.Course) error
	DeleteStudent(ctx context.Context, roll string) error
	DeleteCourse(ctx context.Context, code string) error
	DeleteEnrollment(ctx context.Context, roll, code string) error
}

// Menu runs the main loop.
type Menu struct {
	svc    Service
	prompt Prompter
	out    *Renderer
	rules  *Rules
	log    *logger.Logger
}

// NewMenu wires a menu. A nil logger discards logs.
func NewMenu(svc Service, prompt Prompter, out *Renderer, log *logger.Logger) *Menu {
	if log == nil {
		log = logger.Nop()
	}
	return &Menu{
		svc:    svc,
		prompt: prompt,
		out:    out,
		rules:  NewRules(),
		log:    log.With(logger.Component("console")),
	}
}

type action struct {
	label string
	run   func(ctx context.Context) (Control, error)
}

func (m *Menu) actions() map[string]action {
	return map[string]action{
		"1":  {"Add student", m.addStudent},
		"2":  {"View students", m.viewStudents},
		"3":  {"Add course", m.addCourse},
		"4":  {"View courses", m.viewCourses},
		"5":  {"Enroll student", m.enroll},
		"6":  {"Enter marks", m.enterMarks},
		"7":  {"Student report", m.report},
		"13": {"View enrollments/grades", m.viewEnrollments},
		"8":  {"Edit student", m.editStudent},
		"9":  {"Edit course", m.editCourse},
		"10": {"Delete student", m.deleteStudent},
		"11": {"Delete course", m.deleteCourse},
		"12": {"Delete enrollment", m.deleteEnrollment},
	}
}

// menuOrder is the display order of the main menu.
var menuOrder = []string{"1", "2", "3", "4", "5", "6", "7", "13", "8", "9", "10", "11", "12"}

// Run shows the main menu until the user exits, ctx is cancelled or the
// prompter fails. An interrupted prompt counts as exit.
func (m *Menu) Run(ctx context.Context) error {
	m.out.Banner()

	actions := m.actions()
	options := make([]Option, 0, len(menuOrder)+1)
	for _, key := range menuOrder {
		options = append(options, Option{Label: fmt.Sprintf("[%s] %s", key, actions[key].label), Value: key})
	}
	options = append(options, Option{Label: "[0] Exit", Value: "0"})

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		choice, err := m.prompt.Select("MAIN MENU  "+CountsLine(m.svc.MirrorCounts()), options)
		if err != nil {
			return quiet(err)
		}
		if choice == "0" {
			return nil
		}

		act, ok := actions[choice]
		if !ok {
			m.out.Warning("Unknown option.")
			continue
		}

		m.log.Debug("menu action", logger.String("choice", choice), logger.String("action", act.label))
		ctl, err := act.run(ctx)
		if err != nil {
			return quiet(err)
		}
		if ctl == Exit {
			return nil
		}
	}
}

func quiet(err error) error {
	if errors.Is(err, ErrAborted) {
		return nil
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// PROMPT HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// ask prompts until check passes or a control word is typed.
func (m *Menu) ask(title string, check func(string) error) (string, Control, error) {
	v, err := m.prompt.Input(title+" (0=back, x=exit)", "", func(s string) error {
		if ParseControl(s) != Ok {
			return nil
		}
		return check(strings.TrimSpace(s))
	})
	if err != nil {
		return "", Exit, err
	}
	if c := ParseControl(v); c != Ok {
		return "", c, nil
	}
	return strings.TrimSpace(v), Ok, nil
}

// edit is ask with a current value; a blank answer keeps it.
func (m *Menu) edit(title, current string, check func(string) error) (string, Control, error) {
	v, err := m.prompt.Input(fmt.Sprintf("%s [%s] (enter=keep, 0=back, x=exit)", title, current), current, func(s string) error {
		if strings.TrimSpace(s) == "" || ParseControl(s) != Ok {
			return nil
		}
		return check(strings.TrimSpace(s))
	})
	if err != nil {
		return "", Exit, err
	}
	if strings.TrimSpace(v) == "" {
		return current, Ok, nil
	}
	if c := ParseControl(v); c != Ok {
		return "", c, nil
	}
	return strings.TrimSpace(v), Ok, nil
}

// askMark reads a mark. "0" is a mark here, not back.
func (m *Menu) askMark(title string) (float64, Control, error) {
	isControl := func(s string) bool {
		c := strings.ToLower(strings.TrimSpace(s))
		return c != "0" && ParseControl(c) != Ok
	}
	v, err := m.prompt.Input(title+" [0-100] (b=back, x=exit)", "", func(s string) error {
		if isControl(s) {
			return nil
		}
		_, err := m.rules.Mark(s)
		return err
	})
	if err != nil {
		return 0, Exit, err
	}
	if isControl(v) {
		return 0, ParseControl(v), nil
	}
	mark, err := m.rules.Mark(v)
	if err != nil {
		return 0, Back, nil
	}
	return mark, Ok, nil
}

// askKey reads a roll number and a course code.
func (m *Menu) askKey() (roll, code string, ctl Control, err error) {
	if roll, ctl, err = m.ask("Roll No", m.rules.Roll); ctl != Ok || err != nil {
		return "", "", ctl, err
	}
	if code, ctl, err = m.ask("Course Code", m.rules.Code); ctl != Ok || err != nil {
		return "", "", ctl, err
	}
	return roll, code, Ok, nil
}

// done renders the result of a registry call.
func (m *Menu) done(err error, success string) (Control, error) {
	if err != nil {
		m.out.Failure(err)
		return Back, nil
	}
	m.out.Success(success)
	return Ok, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIONS
// ══════════════════════════════════════════════════════════════════════════════

func (m *Menu) addStudent(ctx context.Context) (Control, error) {
	var in StudentInput
	var ctl Control
	var err error

	if in.RollNo, ctl, err = m.ask("Roll No (e.g. S001)", m.rules.Roll); ctl != Ok || err != nil {
		return ctl, err
	}
	if _, err := m.svc.Student(in.RollNo); err == nil {
		m.out.Warning("That roll is already used.")
		return Back, nil
	}
	if in.Name, ctl, err = m.ask("Name", m.rules.Name); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Address, ctl, err = m.ask("Address", m.rules.Short); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Contact, ctl, err = m.ask("Contact (NZ phone)", m.rules.Phone); ctl != Ok || err != nil {
		return ctl, err
	}
	if err := m.rules.Student(in); err != nil {
		m.out.Warning(err.Error())
		return Back, nil
	}

	return m.done(m.svc.AddStudent(ctx, in.ToStudent()), "Student added.")
}

func (m *Menu) addCourse(ctx context.Context) (Control, error) {
	var in CourseInput
	var ctl Control
	var err error

	if in.Code, ctl, err = m.ask("Code (e.g. ENG101)", m.rules.Code); ctl != Ok || err != nil {
		return ctl, err
	}
	if _, err := m.svc.Course(in.Code); err == nil {
		m.out.Warning("Course code already exists.")
		return Back, nil
	}
	if in.Title, ctl, err = m.ask("Title", m.rules.Short); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Description, ctl, err = m.ask("Description", m.rules.Short); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Teacher, ctl, err = m.ask("Teacher", m.rules.Name); ctl != Ok || err != nil {
		return ctl, err
	}
	if err := m.rules.Course(in); err != nil {
		m.out.Warning(err.Error())
		return Back, nil
	}

	return m.done(m.svc.AddCourse(ctx, in.ToCourse()), "Course added.")
}

func (m *Menu) enroll(ctx context.Context) (Control, error) {
	roll, code, ctl, err := m.askKey()
	if ctl != Ok || err != nil {
		return ctl, err
	}
	return m.done(m.svc.Enroll(ctx, roll, code), fmt.Sprintf("%s enrolled in %s.", roll, code))
}

func (m *Menu) enterMarks(ctx context.Context) (Control, error) {
	roll, code, ctl, err := m.askKey()
	if ctl != Ok || err != nil {
		return ctl, err
	}
	if !m.enrolled(roll, code) {
		m.out.Warning("Not enrolled in that course.")
		return Back, nil
	}

	var in MarksInput
	if in.Internal, ctl, err = m.askMark("Internal mark"); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Final, ctl, err = m.askMark("Final mark"); ctl != Ok || err != nil {
		return ctl, err
	}
	if err := m.rules.Marks(in); err != nil {
		m.out.Warning(err.Error())
		return Back, nil
	}

	return m.done(m.svc.EnterMarks(ctx, roll, code, in.Internal, in.Final), "Marks saved.")
}

func (m *Menu) report(ctx context.Context) (Control, error) {
	roll, ctl, err := m.ask("Roll No", m.rules.Roll)
	if ctl != Ok || err != nil {
		return ctl, err
	}
	rep, err := m.svc.Report(ctx, roll)
	if err != nil {
		m.out.Failure(err)
		return Back, nil
	}
	m.out.Report(rep)
	return Ok, nil
}

func (m *Menu) viewStudents(context.Context) (Control, error) {
	m.out.Students(m.svc.Students())
	return Ok, nil
}

func (m *Menu) viewCourses(context.Context) (Control, error) {
	m.out.Courses(m.svc.Courses())
	return Ok, nil
}

func (m *Menu) viewEnrollments(context.Context) (Control, error) {
	m.out.Enrollments(m.svc.Enrollments())
	return Ok, nil
}

func (m *Menu) editStudent(ctx context.Context) (Control, error) {
	roll, ctl, err := m.ask("Roll No to edit", m.rules.Roll)
	if ctl != Ok || err != nil {
		return ctl, err
	}
	cur, err := m.svc.Student(roll)
	if err != nil {
		m.out.Warning("Student not found.")
		return Back, nil
	}

	in := StudentInput{RollNo: roll}
	if in.Name, ctl, err = m.edit("Name", cur.Name, m.rules.Name); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Address, ctl, err = m.edit("Address", cur.Address, m.rules.Short); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Contact, ctl, err = m.edit("Contact", cur.Contact, m.rules.Phone); ctl != Ok || err != nil {
		return ctl, err
	}

	return m.done(m.svc.UpdateStudent(ctx, in.ToStudent()), "Student updated.")
}

func (m *Menu) editCourse(ctx context.Context) (Control, error) {
	code, ctl, err := m.ask("Course Code to edit", m.rules.Code)
	if ctl != Ok || err != nil {
		return ctl, err
	}
	cur, err := m.svc.Course(code)
	if err != nil {
		m.out.Warning("Course not found.")
		return Back, nil
	}

	in := CourseInput{Code: code}
	if in.Title, ctl, err = m.edit("Title", cur.Title, m.rules.Short); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Description, ctl, err = m.edit("Description", cur.Description, m.rules.Short); ctl != Ok || err != nil {
		return ctl, err
	}
	if in.Teacher, ctl, err = m.edit("Teacher", cur.Teacher, m.rules.Name); ctl != Ok || err != nil {
		return ctl, err
	}

	return m.done(m.svc.UpdateCourse(ctx, in.ToCourse()), "Course updated.")
}

func (m *Menu) deleteStudent(ctx context.Context) (Control, error) {
	roll, ctl, err := m.ask("Roll No to delete", m.rules.Roll)
	if ctl != Ok || err != nil {
		return ctl, err
	}
	if _, err := m.svc.Student(roll); err != nil {
		m.out.Warning("Student not found.")
		return Back, nil
	}
	if ok, err := m.prompt.Confirm(fmt.Sprintf("Delete %s and all of their enrollments?", roll)); !ok || err != nil {
		return Back, err
	}
	return m.done(m.svc.DeleteStudent(ctx, roll), "Student deleted with their enrollments.")
}

func (m *Menu) deleteCourse(ctx context.Context) (Control, error) {
	code, ctl, err := m.ask("Course Code to delete", m.rules.Code)
	if ctl != Ok || err != nil {
		return ctl, err
	}
	if _, err := m.svc.Course(code); err != nil {
		m.out.Warning("Course not found.")
		return Back, nil
	}
	if ok, err := m.prompt.Confirm(fmt.Sprintf("Delete %s and every enrollment in it?", code)); !ok || err != nil {
		return Back, err
	}
	return m.done(m.svc.DeleteCourse(ctx, code), "Course deleted with its enrollments.")
}

func (m *Menu) deleteEnrollment(ctx context.Context) (Control, error) {
	roll, code, ctl, err := m.askKey()
	if ctl != Ok || err != nil {
		return ctl, err
	}
	if !m.enrolled(roll, code) {
		m.out.Warning("Not enrolled in that course.")
		return Back, nil
	}
	if ok, err := m.prompt.Confirm(fmt.Sprintf("Remove %s from %s? Their marks are lost.", roll, code)); !ok || err != nil {
		return Back, err
	}
	return m.done(m.svc.DeleteEnrollment(ctx, roll, code), "Enrollment deleted.")
}

func (m *Menu) enrolled(roll, code string) bool {
	for _, e := range m.svc.Enrollments() {
		if e.RollNo == roll && e.CourseCode == code {
			return true
		}
	}
	return false
}
