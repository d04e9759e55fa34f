package history

import (
	"errors"
	"slices"
	"testing"
)

type snap struct{ name string }

func newSnaps(names ...string) []*snap {
	out := make([]*snap, len(names))
	for i, n := range names {
		out[i] = &snap{name: n}
	}
	return out
}

func TestNew(t *testing.T) {
	initial := &snap{"initial"}
	h := New(initial)

	if h.Present() != initial {
		t.Error("present should be the initial state")
	}
	if len(h.Past()) != 0 || len(h.Future()) != 0 {
		t.Error("past and future should be empty")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("new history should not be undoable or redoable")
	}
}

func TestUndoEmptyIsNoop(t *testing.T) {
	initial := &snap{"initial"}
	h := New(initial)

	got, err := h.Undo()
	if !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("Undo() error = %v, want ErrNothingToUndo", err)
	}
	if got.Present() != initial {
		t.Error("present changed on empty undo")
	}
}

func TestRedoEmptyIsNoop(t *testing.T) {
	initial := &snap{"initial"}
	h := New(initial)

	got, err := h.Redo()
	if !errors.Is(err, ErrNothingToRedo) {
		t.Fatalf("Redo() error = %v, want ErrNothingToRedo", err)
	}
	if got.Present() != initial {
		t.Error("present changed on empty redo")
	}
}

func TestInsertUndoRedo(t *testing.T) {
	s := newSnaps("initial", "a", "b")
	h := New(s[0]).Insert(s[1]).Insert(s[2])

	if !slices.Equal(h.Past(), []*snap{s[0], s[1]}) {
		t.Fatalf("past = %v", h.Past())
	}
	if h.Present() != s[2] {
		t.Fatal("present should maintain the inserted reference")
	}

	h, err := h.Undo()
	if err != nil {
		t.Fatalf("Undo() error: %v", err)
	}
	if h.Present() != s[1] {
		t.Errorf("present after undo = %v, want a", h.Present())
	}
	if !slices.Equal(h.Past(), []*snap{s[0]}) || !slices.Equal(h.Future(), []*snap{s[2]}) {
		t.Errorf("after undo past=%v future=%v", h.Past(), h.Future())
	}

	h, err = h.Redo()
	if err != nil {
		t.Fatalf("Redo() error: %v", err)
	}
	if h.Present() != s[2] {
		t.Errorf("present after redo = %v, want b", h.Present())
	}
	if h.FutureLen() != 0 || h.PastLen() != 2 {
		t.Errorf("after redo past=%d future=%d", h.PastLen(), h.FutureLen())
	}
}

func TestInsertDiscardsFuture(t *testing.T) {
	s := newSnaps("initial", "a", "b", "c")
	h := New(s[0]).Insert(s[1]).Insert(s[2])
	h, _ = h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected a redo chain")
	}

	h = h.Insert(s[3])
	if h.CanRedo() {
		t.Error("insert should discard the future")
	}
	if !slices.Equal(h.Past(), []*snap{s[0], s[1]}) {
		t.Errorf("past = %v", h.Past())
	}
}

func TestPatch(t *testing.T) {
	s := newSnaps("initial", "a", "b", "patched")
	h := New(s[0]).Insert(s[1]).Insert(s[2])
	h, _ = h.Undo()
	pastBefore := h.Past()

	h = h.Patch(s[3])
	if h.Present() != s[3] {
		t.Error("patch should replace present")
	}
	if !slices.Equal(h.Past(), pastBefore) {
		t.Error("patch should not touch past")
	}
	if h.CanRedo() {
		t.Error("patch should clear the future")
	}
}

func TestReset(t *testing.T) {
	s := newSnaps("initial", "a", "other")
	h := New(s[0]).Insert(s[1])

	kept := h.Reset()
	if kept.Present() != s[1] || kept.CanUndo() || kept.CanRedo() {
		t.Error("Reset should keep present and clear past/future")
	}

	replaced := h.ResetTo(s[2])
	if replaced.Present() != s[2] || replaced.CanUndo() {
		t.Error("ResetTo should replace present and clear past")
	}
}

func TestValuesAreImmutable(t *testing.T) {
	s := newSnaps("initial", "a", "b", "c")
	base := New(s[0]).Insert(s[1])

	branchA := base.Insert(s[2])
	branchB := base.Insert(s[3])

	if base.Present() != s[1] || base.PastLen() != 1 {
		t.Error("base history was mutated")
	}
	if branchA.Present() != s[2] || branchB.Present() != s[3] {
		t.Error("branches share state")
	}
	if !slices.Equal(branchA.Past(), []*snap{s[0], s[1]}) || !slices.Equal(branchB.Past(), []*snap{s[0], s[1]}) {
		t.Error("branch pasts corrupted by sibling append")
	}

	undone, _ := branchA.Undo()
	if branchA.Present() != s[2] || undone.Present() != s[1] {
		t.Error("Undo mutated its receiver")
	}
}

func TestRedoAfterUndoRestoresState(t *testing.T) {
	s := newSnaps("0", "1", "2", "3", "4")
	h := New(s[0])
	for _, st := range s[1:] {
		h = h.Insert(st)
	}

	for i := 0; i < 3; i++ {
		before := h.Present()
		undone, err := h.Undo()
		if err != nil {
			t.Fatalf("Undo() error: %v", err)
		}
		redone, err := undone.Redo()
		if err != nil {
			t.Fatalf("Redo() error: %v", err)
		}
		if redone.Present() != before {
			t.Fatalf("redo did not restore %v", before)
		}
		h = undone
	}
}

func stepN(t *testing.T, h History[*snap], steps int) History[*snap] {
	t.Helper()
	var err error
	for ; steps < 0; steps++ {
		if h, err = h.Undo(); err != nil {
			t.Fatalf("Undo() error: %v", err)
		}
	}
	for ; steps > 0; steps-- {
		if h, err = h.Redo(); err != nil {
			t.Fatalf("Redo() error: %v", err)
		}
	}
	return h
}

func TestJumpMatchesSingleSteps(t *testing.T) {
	s := newSnaps("0", "1", "2", "3", "4", "5")
	h := New(s[0])
	for _, st := range s[1:] {
		h = h.Insert(st)
	}
	h = stepN(t, h, -2) // present "3", two future states

	tests := []struct {
		name  string
		steps int
	}{
		{"zero", 0},
		{"back one", -1},
		{"back two", -2},
		{"back all", -3},
		{"forward one", 1},
		{"forward two", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Jump(tt.steps)
			if err != nil {
				t.Fatalf("Jump(%d) error: %v", tt.steps, err)
			}
			want := stepN(t, h, tt.steps)

			if got.Present() != want.Present() {
				t.Errorf("present = %v, want %v", got.Present(), want.Present())
			}
			if !slices.Equal(got.Past(), want.Past()) {
				t.Errorf("past = %v, want %v", got.Past(), want.Past())
			}
			if !slices.Equal(got.Future(), want.Future()) {
				t.Errorf("future = %v, want %v", got.Future(), want.Future())
			}
		})
	}
}

func TestJumpOutOfRange(t *testing.T) {
	s := newSnaps("0", "1", "2")
	h := New(s[0]).Insert(s[1]).Insert(s[2])
	h, _ = h.Undo()

	for _, steps := range []int{-3, 2, 10} {
		got, err := h.Jump(steps)
		if !errors.Is(err, ErrJumpOutOfRange) {
			t.Errorf("Jump(%d) error = %v, want ErrJumpOutOfRange", steps, err)
		}
		if got.Present() != h.Present() || got.PastLen() != h.PastLen() {
			t.Errorf("Jump(%d) changed history on error", steps)
		}
	}
}
