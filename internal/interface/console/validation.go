package console

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pspschool/studentms/internal/domain/school"
)

// ══════════════════════════════════════════════════════════════════════════════
// INPUT CONTROL
// ══════════════════════════════════════════════════════════════════════════════

// Control is what a prompt answer asks the menu to do.
type Control int

const (
	// Ok means the answer is a value.
	Ok Control = iota
	// Back cancels the current action and returns to the menu.
	Back
	// Exit leaves the menu.
	Exit
)

// ParseControl recognises the back ("0", "b") and exit ("x", "q") keywords.
func ParseControl(input string) Control {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "0", "b":
		return Back
	case "x", "q":
		return Exit
	default:
		return Ok
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// FIELD RULES
// ══════════════════════════════════════════════════════════════════════════════

var (
	rollRe  = regexp.MustCompile(`^S\d{3,6}$`)
	codeRe  = regexp.MustCompile(`^[A-Z]{3}\d{3}$`)
	nameRe  = regexp.MustCompile(`^[A-Za-z '\-]+$`)
	phoneRe = regexp.MustCompile(`^0(2[0-9]|[3-9][0-9])[- ]?\d{3}[- ]?\d{3,4}$|^021[- ]?\d{3}[- ]?\d{3,4}$`)
)

const (
	nameMin  = 2
	nameMax  = 40
	shortMax = 60
)

// StudentInput is a student as typed at the prompt.
type StudentInput struct {
	RollNo  string `validate:"rollno"`
	Name    string `validate:"personname"`
	Address string `validate:"shorttext"`
	Contact string `validate:"nzphone"`
}

// CourseInput is a course as typed at the prompt.
type CourseInput struct {
	Code        string `validate:"coursecode"`
	Title       string `validate:"shorttext"`
	Description string `validate:"shorttext"`
	Teacher     string `validate:"personname"`
}

// MarksInput is a pair of marks as typed at the prompt.
type MarksInput struct {
	Internal float64 `validate:"gte=0,lte=100"`
	Final    float64 `validate:"gte=0,lte=100"`
}

// Rules validates console input with go-playground/validator and a set of
// school-specific tags.
type Rules struct {
	v *validator.Validate
}

// NewRules registers the custom tags and returns the rule set.
func NewRules() *Rules {
	v := validator.New(validator.WithRequiredStructEnabled())

	register := func(tag string, fn func(string) bool) {
		// Registration only fails on an empty tag or nil func.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return fn(fl.Field().String())
		})
	}
	register("rollno", rollRe.MatchString)
	register("coursecode", codeRe.MatchString)
	register("personname", func(s string) bool {
		return len(s) >= nameMin && len(s) <= nameMax && nameRe.MatchString(s)
	})
	register("shorttext", func(s string) bool {
		return strings.TrimSpace(s) != "" && len(s) <= shortMax
	})
	register("nzphone", phoneRe.MatchString)

	return &Rules{v: v}
}

var (
	errRoll   = errors.New("use S followed by 3-6 digits, e.g. S001")
	errCode   = errors.New("use 3 capital letters and 3 digits, e.g. ENG101")
	errName   = errors.New("letters, spaces, ' and - only (2-40 characters)")
	errShort  = errors.New("required, at most 60 characters")
	errPhone  = errors.New("not a valid NZ phone number")
	errMarks  = errors.New("must be a number between 0 and 100")
	errNumber = errors.New("please enter a number")
)

var tagMessages = map[string]error{
	"rollno":     errRoll,
	"coursecode": errCode,
	"personname": errName,
	"shorttext":  errShort,
	"nzphone":    errPhone,
	"gte":        errMarks,
	"lte":        errMarks,
}

// Roll checks a roll number.
func (r *Rules) Roll(s string) error { return r.field(s, "rollno") }

// Code checks a course code.
func (r *Rules) Code(s string) error { return r.field(s, "coursecode") }

// Name checks a student or teacher name.
func (r *Rules) Name(s string) error { return r.field(s, "personname") }

// Short checks an address, title or description.
func (r *Rules) Short(s string) error { return r.field(s, "shorttext") }

// Phone checks an NZ phone number.
func (r *Rules) Phone(s string) error { return r.field(s, "nzphone") }

// Mark parses and range-checks one mark.
func (r *Rules) Mark(s string) (float64, error) {
	m, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errNumber
	}
	if err := r.v.Var(m, "gte=0,lte=100"); err != nil {
		return 0, errMarks
	}
	return m, nil
}

// Student validates every field of in and returns the first problem.
func (r *Rules) Student(in StudentInput) error { return r.structure(in) }

// Course validates every field of in and returns the first problem.
func (r *Rules) Course(in CourseInput) error { return r.structure(in) }

// Marks validates both marks.
func (r *Rules) Marks(in MarksInput) error { return r.structure(in) }

func (r *Rules) field(s, tag string) error {
	if err := r.v.Var(s, tag); err != nil {
		return tagMessages[tag]
	}
	return nil
}

func (r *Rules) structure(in any) error {
	err := r.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		return err
	}
	return &FieldError{Field: fe.Field(), Err: msg}
}

// FieldError names the input field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }
func (e *FieldError) Unwrap() error { return e.Err }

// ToStudent converts validated input.
func (in StudentInput) ToStudent() school.Student {
	return school.Student{RollNo: in.RollNo, Name: in.Name, Address: in.Address, Contact: in.Contact}
}

// ToCourse converts validated input.
func (in CourseInput) ToCourse() school.Course {
	return school.Course{Code: in.Code, Title: in.Title, Description: in.Description, Teacher: in.Teacher}
}
