package console

import (
	"errors"
	"io"

	"github.com/charmbracelet/huh"
)

// Option is one entry of a selection prompt.
type Option struct {
	Label string
	Value string
}

// Prompter asks the user for input. Implementations block until the answer
// passes validate.
type Prompter interface {
	Select(title string, options []Option) (string, error)
	Input(title, placeholder string, validate func(string) error) (string, error)
	Confirm(title string) (bool, error)
}

// ErrAborted is returned by a Prompter when the user interrupts the prompt.
var ErrAborted = errors.New("prompt aborted")

// HuhPrompter renders prompts with charmbracelet/huh.
type HuhPrompter struct {
	in         io.Reader
	out        io.Writer
	accessible bool
}

// NewHuhPrompter returns a prompter on in/out. Nil streams use the terminal.
// Accessible mode replaces the TUI with plain line prompts.
func NewHuhPrompter(in io.Reader, out io.Writer, accessible bool) *HuhPrompter {
	return &HuhPrompter{in: in, out: out, accessible: accessible}
}

// Select shows a single-choice list.
func (p *HuhPrompter) Select(title string, options []Option) (string, error) {
	opts := make([]huh.Option[string], 0, len(options))
	for _, o := range options {
		opts = append(opts, huh.NewOption(o.Label, o.Value))
	}

	var v string
	err := p.run(huh.NewSelect[string]().Title(title).Options(opts...).Value(&v))
	return v, err
}

// Input reads one line of text.
func (p *HuhPrompter) Input(title, placeholder string, validate func(string) error) (string, error) {
	var v string
	field := huh.NewInput().Title(title).Placeholder(placeholder).Value(&v)
	if validate != nil {
		field = field.Validate(validate)
	}
	err := p.run(field)
	return v, err
}

// Confirm asks a yes/no question. No is the default.
func (p *HuhPrompter) Confirm(title string) (bool, error) {
	var v bool
	err := p.run(huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&v))
	return v, err
}

func (p *HuhPrompter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithShowHelp(false).
		WithAccessible(p.accessible)
	if p.in != nil {
		form = form.WithInput(p.in)
	}
	if p.out != nil {
		form = form.WithOutput(p.out)
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}
