// Package interactive implements the console flow: pick a source, capture
// or read it, then transcribe, summarize, save and show the result.
package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("aborted by user")

// Choice is one option of a Select prompt.
type Choice struct {
	Label string
	Value string
}

// Prompter asks the user questions.
type Prompter interface {
	Select(title string, choices []Choice) (string, error)
	Input(title, initial string, validate func(string) error) (string, error)
	Confirm(title string) (bool, error)
}

// NewPrompter returns huh prompts when in is a terminal. Otherwise answers
// are read line by line from lines, which must wrap in and be its only
// reader, so piped answers and piped transcript text share one buffer.
func NewPrompter(in io.Reader, lines *bufio.Reader, out io.Writer) Prompter {
	if isTerminal(in) {
		return NewHuhPrompter(in, out)
	}
	return NewLinePrompter(lines, out)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// HuhPrompter renders prompts with huh on a terminal.
type HuhPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewHuhPrompter reads answers from the terminal in.
func NewHuhPrompter(in io.Reader, out io.Writer) *HuhPrompter {
	return &HuhPrompter{in: in, out: out}
}

// Select shows a single-choice list and returns the chosen value.
func (p *HuhPrompter) Select(title string, choices []Choice) (string, error) {
	opts := make([]huh.Option[string], len(choices))
	for i, c := range choices {
		opts[i] = huh.NewOption(c.Label, c.Value)
	}

	var value string
	err := p.run(huh.NewSelect[string]().
		Title(title).
		Options(opts...).
		Value(&value))
	return value, err
}

// Input asks for a line of text, pre-filled with initial.
func (p *HuhPrompter) Input(title, initial string, validate func(string) error) (string, error) {
	value := initial
	field := huh.NewInput().
		Title(title).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	err := p.run(field)
	return value, err
}

// Confirm asks a yes/no question.
func (p *HuhPrompter) Confirm(title string) (bool, error) {
	var yes bool
	err := p.run(huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&yes))
	return yes, err
}

func (p *HuhPrompter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithInput(p.in).
		WithOutput(p.out)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// LinePrompter asks questions as plain text and reads one line per answer.
// It never reads past the answer's newline.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewLinePrompter reads answers from in.
func NewLinePrompter(in *bufio.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: in, out: out}
}

// Select lists the choices numbered from 1 and accepts a number or a value.
func (p *LinePrompter) Select(title string, choices []Choice) (string, error) {
	fmt.Fprintln(p.out, title)
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, c.Label)
	}
	for {
		fmt.Fprintf(p.out, "Choose [1-%d]: ", len(choices))
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1].Value, nil
		}
		for _, c := range choices {
			if strings.EqualFold(answer, c.Value) {
				return c.Value, nil
			}
		}
		fmt.Fprintf(p.out, "Invalid choice %q.\n", answer)
	}
}

// Input reads a line; an empty answer keeps initial.
func (p *LinePrompter) Input(title, initial string, validate func(string) error) (string, error) {
	for {
		if initial != "" {
			fmt.Fprintf(p.out, "%s [%s]: ", title, initial)
		} else {
			fmt.Fprintf(p.out, "%s: ", title)
		}
		answer, err := p.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" {
			answer = initial
		}
		if validate == nil {
			return answer, nil
		}
		if err := validate(answer); err != nil {
			fmt.Fprintf(p.out, "  %v\n", err)
			continue
		}
		return answer, nil
	}
}

// Confirm accepts y/yes or n/no; an empty answer is no.
func (p *LinePrompter) Confirm(title string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s [y/N]: ", title)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
	}
}

// readLine returns the next line without its line ending. End of input
// before any answer aborts the prompt.
func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("prompt: %w", err)
		}
		if line == "" {
			return "", fmt.Errorf("%w: end of input", ErrAborted)
		}
	}
	return strings.TrimSpace(line), nil
}
