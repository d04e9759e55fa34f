package replay

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/undocore/internal/logging"
	"github.com/dshills/undocore/internal/store"
	"github.com/dshills/undocore/internal/undo"
)

// Options configures a replay run.
type Options struct {
	// Enhancer classifies actions. The zero value uses the undo defaults.
	Enhancer undo.EnhancerConfig

	// Output receives one line per step. Nil discards it.
	Output io.Writer

	// Logger receives store and undo logs.
	Logger *logging.Logger
}

// Run executes script against a fresh store initialized with one counter
// per section. It stops at the first failed expectation, returning an
// *ExpectationError together with the store in its state at that step.
func Run(ctx context.Context, script *Script, opts Options) (*store.Store, error) {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	st := store.New(opts.Enhancer, store.WithLogger(opts.Logger))
	for _, name := range script.Sections {
		key := undo.Key(name)
		if err := store.AddSection(st, key, &Counter{}, CounterReducer(key)); err != nil {
			return nil, err
		}
	}
	if err := st.Init(); err != nil {
		return nil, err
	}

	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		if err := apply(st, step); err != nil {
			return st, fmt.Errorf("step %d (%s): %w", i+1, step, err)
		}
		fmt.Fprintf(out, "%3d  %-32s %s\n", i+1, step, Summary(st, script.Sections))

		if err := check(st, script.Sections, step, i+1); err != nil {
			return st, err
		}
	}
	return st, nil
}

// apply dispatches the action of step, if any.
func apply(st *store.Store, step Step) error {
	var a undo.Action
	switch step.Do {
	case "":
		return nil
	case DoIncrement:
		a = CounterAction(TypeIncrement, undo.Key(step.Section), step.Amount)
	case DoDecrement:
		a = CounterAction(TypeDecrement, undo.Key(step.Section), step.Amount)
	case DoSet:
		a = CounterAction(TypeSet, undo.Key(step.Section), step.Amount)
	case DoDispatch:
		a = undo.NewAction(undo.Type(step.Type), nil)
	case DoUndo:
		return st.Undo()
	case DoRedo:
		return st.Redo()
	case DoJump:
		return st.Jump(step.Steps)
	case DoTransact:
		return st.Transact()
	case DoCommit:
		return st.Commit()
	case DoAbort:
		return st.Abort()
	case DoPurge:
		return st.Purge()
	case DoInit:
		return st.Init()
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidScript, step.Do)
	}

	if step.Undoable {
		a = undo.MakeUndoable(a)
	}
	if step.Purge {
		a = undo.MakePurging(a)
	}
	return st.Dispatch(a)
}

// check verifies step's expectations. Sections are checked in script
// order, then past and future.
func check(st *store.Store, sections []string, step Step, n int) error {
	for _, name := range sections {
		want, ok := step.Expect[name]
		if !ok {
			continue
		}
		if got := value(st, name); got != want {
			return &ExpectationError{Step: n, Field: name, Want: want, Got: got}
		}
	}

	us := st.UndoState()
	if step.Past != nil && us.Past != *step.Past {
		return &ExpectationError{Step: n, Field: "past", Want: *step.Past, Got: us.Past}
	}
	if step.Future != nil && us.Future != *step.Future {
		return &ExpectationError{Step: n, Field: "future", Want: *step.Future, Got: us.Future}
	}
	return nil
}

func value(st *store.Store, section string) int {
	c, ok := store.Get[*Counter](st, undo.Key(section))
	if !ok || c == nil {
		return 0
	}
	return c.Value
}

// Values returns the counter value of every section.
func Values(st *store.Store, sections []string) map[string]int {
	values := make(map[string]int, len(sections))
	for _, name := range sections {
		values[name] = value(st, name)
	}
	return values
}

// Summary formats section values and history counts on one line, for
// example "blocks=5 projects=0 past=1 future=0".
func Summary(st *store.Store, sections []string) string {
	parts := make([]string, 0, len(sections)+2)
	for _, name := range sections {
		parts = append(parts, fmt.Sprintf("%s=%d", name, value(st, name)))
	}
	us := st.UndoState()
	if st.Manager().InTransaction() {
		parts = append(parts, "(transaction)")
	}
	parts = append(parts, fmt.Sprintf("past=%d future=%d", us.Past, us.Future))
	return strings.Join(parts, " ")
}
