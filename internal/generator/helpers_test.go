package generator

import (
	"context"
	"fmt"

	"github.com/quill-cms/quill/internal/prompt"
)

// scripted answers questions from a queue and records what was asked.
type scripted struct {
	answers []any
	asked   []string
}

var _ prompt.Prompter = (*scripted)(nil)

func (s *scripted) next(q string) any {
	s.asked = append(s.asked, q)
	if len(s.answers) == 0 {
		panic(fmt.Sprintf("unexpected question %q", q))
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a
}

func (s *scripted) Confirm(q string, _ bool) (bool, error) { return s.next(q).(bool), nil }

func (s *scripted) Select(q string, _ []prompt.Choice, _ int) (string, error) {
	return s.next(q).(string), nil
}

func (s *scripted) Input(q, _ string) (string, error) { return s.next(q).(string), nil }

func (s *scripted) Password(q string) (string, error) { return s.next(q).(string), nil }

type fakeInstaller struct {
	installed []string
	developed []string
	err       error
}

func (f *fakeInstaller) Install(_ context.Context, dir, pm string) error {
	f.installed = append(f.installed, pm+":"+dir)
	return f.err
}

func (f *fakeInstaller) Develop(_ context.Context, dir, pm string) error {
	f.developed = append(f.developed, pm+":"+dir)
	return nil
}

func nodeVersion(v string) NodeVersionFunc {
	return func(context.Context) (string, error) { return v, nil }
}

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}
