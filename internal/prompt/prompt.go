// Package prompt asks the user questions on a line-based terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrNoAnswer is returned when input ends before a question is answered.
var ErrNoAnswer = errors.New("no answer: input closed")

// Choice is one entry of a Select menu.
type Choice struct {
	Label string
	Value string
}

// Prompter asks questions.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
	// Select returns the Value of the chosen entry. def is the index used
	// on an empty answer, or -1 for none.
	Select(question string, choices []Choice, def int) (string, error)
	Input(question, def string) (string, error)
	Password(question string) (string, error)
}

// Terminal is a Prompter reading answers line by line.
type Terminal struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

var _ Prompter = (*Terminal)(nil)

// NewTerminal returns a Terminal reading from in and writing to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, reader: bufio.NewReader(in), out: out}
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoAnswer
		}
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question.
func (t *Terminal) Confirm(question string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(t.out, "? %s (%s) ", question, hint)
		answer, err := t.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(t.out, "Please answer y or n.")
	}
}

// Select presents a numbered list of choices.
func (t *Terminal) Select(question string, choices []Choice, def int) (string, error) {
	if len(choices) == 0 {
		return "", fmt.Errorf("select %q: no choices", question)
	}
	fmt.Fprintf(t.out, "? %s\n", question)
	for i, c := range choices {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, c.Label)
	}
	for {
		if def >= 0 && def < len(choices) {
			fmt.Fprintf(t.out, "Enter number [1-%d] (%d): ", len(choices), def+1)
		} else {
			fmt.Fprintf(t.out, "Enter number [1-%d]: ", len(choices))
		}
		answer, err := t.readLine()
		if err != nil {
			return "", err
		}
		if answer == "" && def >= 0 && def < len(choices) {
			return choices[def].Value, nil
		}
		num, err := strconv.Atoi(answer)
		if err == nil && num >= 1 && num <= len(choices) {
			return choices[num-1].Value, nil
		}
		fmt.Fprintf(t.out, "Invalid selection %q: choose 1-%d.\n", answer, len(choices))
	}
}

// Input asks for free text, returning def on an empty answer.
func (t *Terminal) Input(question, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(t.out, "? %s (%s) ", question, def)
	} else {
		fmt.Fprintf(t.out, "? %s ", question)
	}
	answer, err := t.readLine()
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Password asks for a secret. Input is hidden when reading from a terminal.
func (t *Terminal) Password(question string) (string, error) {
	fmt.Fprintf(t.out, "? %s ", question)
	if f, ok := t.in.(*os.File); ok && Interactive(f) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(t.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}
	return t.readLine()
}
