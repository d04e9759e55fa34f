package store

import (
	"errors"
	"slices"
	"testing"

	"github.com/dshills/undocore/internal/undo"
)

type counter struct{ value int }

const typeAdd undo.Type = "add"

type addPayload struct {
	key undo.Key
	n   int
}

func add(key undo.Key, n int) undo.Action {
	return undo.NewAction(typeAdd, addPayload{key: key, n: n})
}

func counterFor(key undo.Key) undo.Reducer[*counter] {
	return func(s *counter, a undo.Action) *counter {
		if a.Type != typeAdd {
			return s
		}
		p := a.Payload.(addPayload)
		if p.key != key && p.key != "*" {
			return s
		}
		return &counter{value: s.value + p.n}
	}
}

func newStore(t *testing.T, keys ...undo.Key) *Store {
	t.Helper()
	s := New(undo.EnhancerConfig{})
	for _, k := range keys {
		if err := AddSection(s, k, &counter{}, counterFor(k)); err != nil {
			t.Fatalf("AddSection(%q) error: %v", k, err)
		}
	}
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	return s
}

func value(t *testing.T, s *Store, key undo.Key) int {
	t.Helper()
	c, ok := Get[*counter](s, key)
	if !ok {
		t.Fatalf("section %q missing", key)
	}
	return c.value
}

func mustDispatch(t *testing.T, s *Store, a undo.Action) {
	t.Helper()
	if err := s.Dispatch(a); err != nil {
		t.Fatalf("Dispatch(%s) error: %v", a, err)
	}
}

func TestStore_AddSection(t *testing.T) {
	s := New(undo.EnhancerConfig{})
	if s.ID().String() == "" {
		t.Error("store should have an id")
	}

	if err := AddSection(s, "blocks", &counter{value: 3}, counterFor("blocks")); err != nil {
		t.Fatal(err)
	}
	if got := value(t, s, "blocks"); got != 3 {
		t.Errorf("initial value = %d, want 3", got)
	}

	err := AddSection(s, "blocks", &counter{}, counterFor("blocks"))
	if !errors.Is(err, undo.ErrDuplicateSection) {
		t.Errorf("duplicate AddSection error = %v, want ErrDuplicateSection", err)
	}
	err = AddSection(s, SummaryKey, &counter{}, counterFor("x"))
	if !errors.Is(err, ErrReservedKey) {
		t.Errorf("AddSection(SummaryKey) error = %v, want ErrReservedKey", err)
	}
}

func TestStore_UndoRedoAcrossSections(t *testing.T) {
	s := newStore(t, "blocks", "projects")

	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 5)))
	mustDispatch(t, s, undo.MakeUndoable(add("projects", 2)))
	mustDispatch(t, s, undo.MakeUndoable(add("*", 1)))

	if value(t, s, "blocks") != 6 || value(t, s, "projects") != 3 {
		t.Fatalf("blocks=%d projects=%d", value(t, s, "blocks"), value(t, s, "projects"))
	}
	if us := s.UndoState(); us.Past != 3 || us.Future != 0 {
		t.Errorf("UndoState() = %+v, want past 3", us)
	}

	// The action touching both sections is one undo step.
	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if value(t, s, "blocks") != 5 || value(t, s, "projects") != 2 {
		t.Errorf("after undo blocks=%d projects=%d", value(t, s, "blocks"), value(t, s, "projects"))
	}

	_ = s.Undo()
	if value(t, s, "projects") != 0 || value(t, s, "blocks") != 5 {
		t.Error("second undo should only roll back projects")
	}

	_ = s.Redo()
	_ = s.Redo()
	if value(t, s, "blocks") != 6 || value(t, s, "projects") != 3 {
		t.Error("redo should restore both sections")
	}
}

func TestStore_UnchangedDispatchKeepsState(t *testing.T) {
	s := newStore(t, "blocks")
	before := s.State()

	mustDispatch(t, s, undo.NewAction("unrelated", nil))
	after := s.State()

	if len(before) != len(after) {
		t.Fatalf("state has %d keys, want %d", len(after), len(before))
	}
	for k, v := range before {
		if !undo.Same(v, after[k]) {
			t.Errorf("section %q changed on an unrelated action", k)
		}
	}
}

func TestStore_SummaryIsReferenceStable(t *testing.T) {
	s := newStore(t, "blocks")
	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
	first := s.UndoState()

	// A patch does not change the history.
	var changed []undo.Key
	sub := s.Subscribe(func(c Change) { changed = c.Keys })
	defer sub.Unsubscribe()

	mustDispatch(t, s, add("blocks", 1))
	if slices.Contains(changed, SummaryKey) {
		t.Error("summary changed on a patch")
	}
	if got := s.UndoState(); got != first {
		t.Errorf("UndoState() = %+v, want %+v", got, first)
	}

	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
	if !slices.Equal(changed, []undo.Key{"blocks", SummaryKey}) {
		t.Errorf("changed = %v, want [blocks undo]", changed)
	}
}

func TestStore_Transaction(t *testing.T) {
	s := newStore(t, "blocks", "projects")

	err := s.Transaction(func() error {
		mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
		mustDispatch(t, s, undo.MakeUndoable(add("projects", 1)))
		mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction() error: %v", err)
	}
	if value(t, s, "blocks") != 2 || value(t, s, "projects") != 1 {
		t.Fatalf("blocks=%d projects=%d", value(t, s, "blocks"), value(t, s, "projects"))
	}
	if s.UndoState().Past != 1 {
		t.Errorf("transaction recorded %d entries, want 1", s.UndoState().Past)
	}

	_ = s.Undo()
	if value(t, s, "blocks") != 0 || value(t, s, "projects") != 0 {
		t.Error("one undo should roll back the whole transaction")
	}
}

func TestStore_TransactionError(t *testing.T) {
	s := newStore(t, "blocks")
	boom := errors.New("boom")

	err := s.Transaction(func() error {
		mustDispatch(t, s, undo.MakeUndoable(add("blocks", 7)))
		if got := value(t, s, "blocks"); got != 7 {
			t.Errorf("staged value = %d, want 7", got)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v, want boom", err)
	}
	if value(t, s, "blocks") != 0 {
		t.Error("failed transaction should be rolled back")
	}
	if s.Manager().HasHistory() || s.Manager().InTransaction() {
		t.Error("failed transaction left history or an open transaction")
	}
}

func TestStore_TransactionPanic(t *testing.T) {
	s := newStore(t, "blocks")

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recovered %v, want boom", r)
			}
		}()
		_ = s.Transaction(func() error {
			mustDispatch(t, s, undo.MakeUndoable(add("blocks", 7)))
			panic("boom")
		})
	}()

	if s.Manager().InTransaction() {
		t.Error("panicking transaction left a transaction open")
	}
	if value(t, s, "blocks") != 0 || s.Manager().HasHistory() {
		t.Error("panicking transaction should be rolled back")
	}
	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
	if s.UndoState().Past != 1 {
		t.Errorf("past = %d after a later dispatch, want 1", s.UndoState().Past)
	}
}

type doc struct{ Items []string }

const typeAddItem undo.Type = "addItem"

func docReducer(s doc, a undo.Action) doc {
	if a.Type != typeAddItem {
		return s
	}
	return doc{Items: append(slices.Clone(s.Items), a.Payload.(string))}
}

func TestStore_StructSectionKeepsRedo(t *testing.T) {
	s := New(undo.EnhancerConfig{})
	if err := AddSection(s, "doc", doc{}, docReducer); err != nil {
		t.Fatal(err)
	}
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}

	mustDispatch(t, s, undo.MakeUndoable(undo.NewAction(typeAddItem, "a")))
	_ = s.Undo()
	before := s.State()

	mustDispatch(t, s, undo.NewAction("unrelated", nil))
	if us := s.UndoState(); us.Future != 1 {
		t.Fatalf("unrelated dispatch dropped the redo: %+v", us)
	}
	if len(s.State()) != len(before) || !undo.Same(s.State()["doc"], before["doc"]) {
		t.Error("unrelated dispatch changed the doc section")
	}

	_ = s.Redo()
	got, _ := Get[doc](s, "doc")
	if !slices.Equal(got.Items, []string{"a"}) {
		t.Errorf("after redo items = %v, want [a]", got.Items)
	}
}

func TestStore_Purge(t *testing.T) {
	s := newStore(t, "blocks")
	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
	_ = s.Undo()

	if err := s.Purge(); err != nil {
		t.Fatal(err)
	}
	if us := s.UndoState(); us.Past != 0 || us.Future != 0 {
		t.Errorf("UndoState() after purge = %+v", us)
	}
	if value(t, s, "blocks") != 1 {
		t.Error("purge should keep the current state")
	}
}

func TestStore_PurgeOnConfig(t *testing.T) {
	const locationChange undo.Type = "LOCATION_CHANGE"
	s := New(undo.EnhancerConfig{
		PurgeOn: func(a undo.Action, _, _ any) bool { return a.Type == locationChange },
	})
	if err := AddSection(s, "blocks", &counter{}, counterFor("blocks")); err != nil {
		t.Fatal(err)
	}

	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))
	mustDispatch(t, s, undo.NewAction(locationChange, nil))
	if s.Manager().HasHistory() {
		t.Error("purge-on action should clear history")
	}
}

func TestStore_ReentrantDispatch(t *testing.T) {
	s := New(undo.EnhancerConfig{})
	var inner error
	reducer := func(c *counter, a undo.Action) *counter {
		if a.Type == "outer" {
			inner = s.Dispatch(undo.NewAction("inner", nil))
		}
		return c
	}
	if err := AddSection(s, "blocks", &counter{}, reducer); err != nil {
		t.Fatal(err)
	}

	mustDispatch(t, s, undo.NewAction("outer", nil))
	if !errors.Is(inner, ErrReentrantDispatch) {
		t.Errorf("inner Dispatch() error = %v, want ErrReentrantDispatch", inner)
	}

	// The store recovers after the outer dispatch.
	mustDispatch(t, s, undo.NewAction("later", nil))
}

func TestStore_DispatchStampsSequence(t *testing.T) {
	s := newStore(t, "blocks")
	var got undo.Action
	sub := s.Subscribe(func(c Change) { got = c.Action })
	defer sub.Unsubscribe()

	mustDispatch(t, s, undo.Action{Type: typeAdd, Payload: addPayload{key: "blocks", n: 1}, Undoable: true})
	if got.Seq == 0 {
		t.Error("Dispatch should assign a sequence number")
	}
	if s.UndoState().Past != 1 {
		t.Error("unsequenced undoable action should still be recorded")
	}
}

func TestStore_InitResetsHistory(t *testing.T) {
	s := newStore(t, "blocks")
	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 4)))

	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	if s.Manager().HasHistory() {
		t.Error("init should reset history")
	}
	if value(t, s, "blocks") != 4 {
		t.Error("init should keep the current state")
	}
}

func TestStore_Jump(t *testing.T) {
	s := newStore(t, "blocks")
	mustDispatch(t, s, undo.MakeUndoable(add("blocks", 1)))

	// Cross-section jumps are not supported; the error is logged.
	if err := s.Jump(-1); err != nil {
		t.Errorf("Jump() error = %v", err)
	}
	if value(t, s, "blocks") != 1 {
		t.Error("unsupported jump changed state")
	}
}
