// Package replay runs scripted sequences of actions against a store of
// counter sections and checks the resulting state.
//
// A script is YAML:
//
//	sections: [blocks, projects]
//	steps:
//	  - {do: increment, section: blocks, amount: 5, undoable: true}
//	  - {do: undo}
//	  - {do: transact}
//	  - {do: set, section: projects, amount: 3, undoable: true}
//	  - {do: commit}
//	  - {do: dispatch, type: LOCATION_CHANGE}
//	  - {expect: {blocks: 0, projects: 3}, past: 0, future: 0}
package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step kinds.
const (
	DoIncrement = "increment"
	DoDecrement = "decrement"
	DoSet       = "set"
	DoDispatch  = "dispatch"
	DoUndo      = "undo"
	DoRedo      = "redo"
	DoJump      = "jump"
	DoTransact  = "transact"
	DoCommit    = "commit"
	DoAbort     = "abort"
	DoPurge     = "purge"
	DoInit      = "init"
)

var counterSteps = []string{DoIncrement, DoDecrement, DoSet}

var controlSteps = []string{DoUndo, DoRedo, DoJump, DoTransact, DoCommit, DoAbort, DoPurge, DoInit}

// Script is a parsed replay script.
type Script struct {
	Sections []string `yaml:"sections"`
	Steps    []Step   `yaml:"steps"`
}

// Step is one scripted action, expectation, or both. The action runs
// before the expectation is checked.
type Step struct {
	Do string `yaml:"do,omitempty"`

	// Section and Amount address counter steps.
	Section string `yaml:"section,omitempty"`
	Amount  int    `yaml:"amount,omitempty"`

	// Type is the action type of a dispatch step.
	Type string `yaml:"type,omitempty"`

	Undoable bool `yaml:"undoable,omitempty"`
	Purge    bool `yaml:"purge,omitempty"`

	// Steps is the distance of a jump step.
	Steps int `yaml:"steps,omitempty"`

	Expect map[string]int `yaml:"expect,omitempty"`
	Past   *int           `yaml:"past,omitempty"`
	Future *int           `yaml:"future,omitempty"`
}

// String returns a short description of the step's action.
func (s Step) String() string {
	var b strings.Builder
	switch {
	case s.Do == "":
		b.WriteString("expect")
	case slices.Contains(counterSteps, s.Do):
		fmt.Fprintf(&b, "%s %s %d", s.Do, s.Section, s.Amount)
	case s.Do == DoDispatch:
		fmt.Fprintf(&b, "%s %s", s.Do, s.Type)
	case s.Do == DoJump:
		fmt.Fprintf(&b, "%s %+d", s.Do, s.Steps)
	default:
		b.WriteString(s.Do)
	}
	if s.Undoable {
		b.WriteString(" undoable")
	}
	if s.Purge {
		b.WriteString(" purge")
	}
	return b.String()
}

// hasExpectation reports whether the step checks anything.
func (s Step) hasExpectation() bool {
	return len(s.Expect) > 0 || s.Past != nil || s.Future != nil
}

// Parse reads a script from r and validates it.
func Parse(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty script", ErrInvalidScript)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseFile reads a script from the file at path.
func ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks that every step can run.
func (s *Script) Validate() error {
	if len(s.Sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidScript)
	}
	seen := make(map[string]bool, len(s.Sections))
	for _, name := range s.Sections {
		if name == "" {
			return fmt.Errorf("%w: empty section name", ErrInvalidScript)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate section %q", ErrInvalidScript, name)
		}
		seen[name] = true
	}

	var errs []error
	for i, step := range s.Steps {
		if err := step.validate(seen); err != nil {
			errs = append(errs, fmt.Errorf("%w: step %d: %v", ErrInvalidScript, i+1, err))
		}
	}
	return errors.Join(errs...)
}

func (s Step) validate(sections map[string]bool) error {
	switch {
	case s.Do == "":
		if !s.hasExpectation() {
			return errors.New("step has neither an action nor an expectation")
		}
	case slices.Contains(counterSteps, s.Do):
		if !sections[s.Section] {
			return fmt.Errorf("unknown section %q", s.Section)
		}
	case s.Do == DoDispatch:
		if s.Type == "" {
			return errors.New("dispatch step needs a type")
		}
	case slices.Contains(controlSteps, s.Do):
	default:
		return fmt.Errorf("unknown action %q", s.Do)
	}

	for name := range s.Expect {
		if !sections[name] {
			return fmt.Errorf("expectation for unknown section %q", name)
		}
	}
	return nil
}
