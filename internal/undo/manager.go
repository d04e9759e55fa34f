package undo

import (
	"fmt"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/dshills/undocore/internal/logging"
)

// HistoryEntry records the sections that changed together for one user
// action. Entries are replaced, never modified, once recorded.
type HistoryEntry struct {
	Keys   mapset.Set[Key]
	Action Action
	Time   time.Time
}

// withKey returns a copy of e whose key set also contains key.
func (e *HistoryEntry) withKey(key Key) *HistoryEntry {
	keys := e.Keys.Clone()
	keys.Add(key)
	return &HistoryEntry{Keys: keys, Action: e.Action, Time: e.Time}
}

// UndoState summarizes the manager's history for display.
type UndoState struct {
	Past   int
	Future int
	// Time is the time of the latest entry, or the current time when
	// there is none.
	Time time.Time
}

// Manager coordinates undo, redo and transactions across sections.
type Manager struct {
	sections map[Key]Section
	order    []Key

	past   []*HistoryEntry
	future []*HistoryEntry

	txDepth   int
	txAtStart bool
	// txEntry is the entry created by the open transaction group, and
	// txFuture the redo chain it cleared.
	txEntry  *HistoryEntry
	txFuture []*HistoryEntry

	lastSeq     uint64
	lastDataSeq map[Key]uint64

	logger *logging.Logger
	now    func() time.Time
}

// NewManager creates a manager with no sections.
func NewManager(opts ...Option) *Manager {
	o := buildOptions(opts)
	return &Manager{
		sections:    make(map[Key]Section),
		lastDataSeq: make(map[Key]uint64),
		logger:      o.logger,
		now:         o.now,
	}
}

// Register adds a section under key.
func (m *Manager) Register(key Key, section Section) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, exists := m.sections[key]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateSection, key)
	}
	m.sections[key] = section
	m.order = append(m.order, key)
	m.logger.Debug("registered section %q", key)
	return nil
}

// Keys returns the registered section keys in registration order.
func (m *Manager) Keys() []Key {
	return slices.Clone(m.order)
}

// Section returns the section registered under key.
func (m *Manager) Section(key Key) (Section, bool) {
	s, ok := m.sections[key]
	return s, ok
}

func (m *Manager) mustSection(key Key) Section {
	s, ok := m.sections[key]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownSection, key))
	}
	return s
}

// doOnce runs fn unless a control operation already ran for a's sequence
// number. It reports whether fn ran.
func (m *Manager) doOnce(a Action, fn func()) bool {
	if a.Seq != 0 && a.Seq == m.lastSeq {
		m.logger.Debug("skipping %s: already applied", a)
		return false
	}
	m.lastSeq = a.Seq
	fn()
	return true
}

// doOnceFor is doOnce for data operations, tracked per section.
func (m *Manager) doOnceFor(key Key, a Action, fn func()) {
	if a.Seq != 0 && m.lastDataSeq[key] == a.Seq {
		m.logger.Debug("skipping %s for %q: already applied", a, key)
		return
	}
	m.lastDataSeq[key] = a.Seq
	fn()
}

// Insert records state as an undoable change to the section under key.
// It panics if key is not registered.
func (m *Manager) Insert(key Key, state any, a Action) {
	section := m.mustSection(key)
	m.doOnceFor(key, a, func() {
		inserted := section.InsertState(state, a)
		if inserted || m.txDepth > 0 {
			m.addHistoryItem(key, a)
		}
	})
}

// Patch records state as a non-undoable change to the section under key.
// It panics if key is not registered.
func (m *Manager) Patch(key Key, state any, a Action) {
	section := m.mustSection(key)
	m.doOnceFor(key, a, func() {
		hadFuture := section.CanRedo()
		section.PatchState(state, a)
		if hadFuture && !section.CanRedo() {
			m.dropFuture(key)
		}
	})
}

// dropFuture drops the redo entries from the first one that touches key,
// whose section has lost its redo chain.
func (m *Manager) dropFuture(key Key) {
	for i, e := range m.future {
		if e.Keys.Contains(key) {
			m.logger.Debug("patch of %q cleared its redo chain: dropping %d redo entries", key, len(m.future)-i)
			m.future = m.future[:i:i]
			return
		}
	}
}

func (m *Manager) addHistoryItem(key Key, a Action) {
	last := m.lastEntry()

	if m.txDepth > 0 {
		if !m.txAtStart && last != nil && last == m.txEntry {
			m.replaceLast(last.withKey(key))
			return
		}
		m.txAtStart = false
		m.txFuture = m.future
		m.pushEntry(key, a)
		m.txEntry = m.lastEntry()
		return
	}

	// One action touching several sections is one undoable unit.
	if last != nil && a.Seq != 0 && last.Action.Seq == a.Seq && len(m.future) == 0 {
		m.replaceLast(last.withKey(key))
		return
	}
	m.pushEntry(key, a)
}

func (m *Manager) pushEntry(key Key, a Action) {
	m.past = append(m.past, &HistoryEntry{
		Keys:   mapset.NewThreadUnsafeSet(key),
		Action: a,
		Time:   m.now(),
	})
	m.future = nil
}

func (m *Manager) replaceLast(e *HistoryEntry) {
	if m.txEntry == m.past[len(m.past)-1] {
		m.txEntry = e
	}
	m.past[len(m.past)-1] = e
}

func (m *Manager) lastEntry() *HistoryEntry {
	if len(m.past) == 0 {
		return nil
	}
	return m.past[len(m.past)-1]
}

// LastEntry returns the most recent history entry.
func (m *Manager) LastEntry() (*HistoryEntry, bool) {
	e := m.lastEntry()
	return e, e != nil
}

// Past returns the undoable entries, oldest first.
func (m *Manager) Past() []*HistoryEntry {
	return slices.Clone(m.past)
}

// Future returns the redoable entries, soonest first.
func (m *Manager) Future() []*HistoryEntry {
	return slices.Clone(m.future)
}

// HasHistory reports whether there is anything to undo or redo.
func (m *Manager) HasHistory() bool {
	return len(m.past) > 0 || len(m.future) > 0
}

// InTransaction reports whether a transaction is open.
func (m *Manager) InTransaction() bool {
	return m.txDepth > 0
}

// entryKeys returns the keys of e in registration order.
func (m *Manager) entryKeys(e *HistoryEntry) []Key {
	keys := make([]Key, 0, e.Keys.Cardinality())
	for _, k := range m.order {
		if e.Keys.Contains(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Undo moves every section of the latest entry back one checkpoint.
func (m *Manager) Undo(a Action) error {
	var err error
	m.doOnce(a, func() {
		m.leaveTransaction(a)

		last := m.lastEntry()
		if last == nil {
			err = ErrNothingToUndo
			return
		}
		m.logger.Debug("undo %s: sections %v", a, m.entryKeys(last))
		for _, k := range m.entryKeys(last) {
			m.sections[k].Undo()
		}
		m.past = m.past[:len(m.past)-1]
		m.future = append([]*HistoryEntry{last}, m.future...)
	})
	return err
}

// Redo moves every section of the next entry forward one checkpoint.
func (m *Manager) Redo(a Action) error {
	var err error
	m.doOnce(a, func() {
		m.leaveTransaction(a)

		if len(m.future) == 0 {
			err = ErrNothingToRedo
			return
		}
		next := m.future[0]
		m.logger.Debug("redo %s: sections %v", a, m.entryKeys(next))
		for _, k := range m.entryKeys(next) {
			m.sections[k].Redo()
		}
		m.future = m.future[1:]
		m.past = append(m.past, next)
	})
	return err
}

// Jump is not supported across sections.
func (m *Manager) Jump(steps int, a Action) error {
	var err error
	m.doOnce(a, func() {
		err = fmt.Errorf("%w: %d steps", ErrJumpUnsupported, steps)
	})
	return err
}

// leaveTransaction aborts any open transaction before undo or redo, which
// always end transactions.
func (m *Manager) leaveTransaction(a Action) {
	if m.txDepth == 0 {
		return
	}
	m.logger.Warn("%s while in transaction (depth %d): aborting transaction", a, m.txDepth)
	for _, k := range m.order {
		s := m.sections[k]
		for s.InTransaction() {
			s.Abort(a)
		}
	}
	m.txDepth = 0
	m.dropTransactionEntry()
}

// Transact opens a transaction in every section.
func (m *Manager) Transact(a Action) {
	m.doOnce(a, func() {
		if m.txDepth == 0 {
			m.txAtStart = true
			m.txEntry = nil
			m.txFuture = nil
		}
		m.txDepth++
		m.logger.Debug("transact %s (depth %d)", a, m.txDepth)
		for _, k := range m.order {
			m.sections[k].Transact(a)
		}
	})
}

// Commit closes the innermost transaction in every section.
// It returns ErrNoTransaction when none is open.
func (m *Manager) Commit(a Action) error {
	var err error
	m.doOnce(a, func() {
		if m.txDepth == 0 {
			err = fmt.Errorf("commit %s: %w", a, ErrNoTransaction)
			return
		}
		m.txDepth--
		m.logger.Debug("commit %s (depth %d)", a, m.txDepth)

		inserted := mapset.NewThreadUnsafeSet[Key]()
		for _, k := range m.order {
			if m.sections[k].Commit(a) {
				inserted.Add(k)
			}
		}
		if m.txDepth == 0 {
			m.finishTransaction(inserted, a)
		}
	})
	return err
}

// finishTransaction makes the group's entry name exactly the sections that
// created a checkpoint on the outermost commit.
func (m *Manager) finishTransaction(inserted mapset.Set[Key], a Action) {
	if inserted.IsEmpty() {
		m.dropTransactionEntry()
		return
	}

	entry := m.txEntry
	m.txEntry = nil
	m.txFuture = nil
	m.txAtStart = false

	switch {
	case entry != nil && m.lastEntry() == entry:
		m.past[len(m.past)-1] = &HistoryEntry{Keys: inserted, Action: entry.Action, Time: entry.Time}
	default:
		m.past = append(m.past, &HistoryEntry{Keys: inserted, Action: a, Time: m.now()})
		m.future = nil
	}
}

// Abort closes the innermost transaction in every section. The group will
// not be recorded. It returns ErrNoTransaction when none is open.
func (m *Manager) Abort(a Action) error {
	var err error
	m.doOnce(a, func() {
		if m.txDepth == 0 {
			err = fmt.Errorf("abort %s: %w", a, ErrNoTransaction)
			return
		}
		m.txDepth--
		m.logger.Debug("abort %s (depth %d)", a, m.txDepth)

		for _, k := range m.order {
			m.sections[k].Abort(a)
		}
		if m.txDepth == 0 {
			m.dropTransactionEntry()
		}
	})
	return err
}

// dropTransactionEntry removes the open group's entry and restores the
// redo chain it cleared.
func (m *Manager) dropTransactionEntry() {
	if m.txEntry != nil && m.lastEntry() == m.txEntry {
		m.past = m.past[:len(m.past)-1]
		m.future = m.txFuture
	}
	m.txEntry = nil
	m.txFuture = nil
	m.txAtStart = false
}

// Purge clears all history in the manager and every section. It is not
// deduplicated: repeated purges with the same action all run.
func (m *Manager) Purge(a Action) {
	m.logger.Debug("purge %s", a)
	m.past = nil
	m.future = nil
	m.txEntry = nil
	m.txFuture = nil
	for _, k := range m.order {
		m.sections[k].Purge()
	}
}

// UndoState returns a summary of the history.
func (m *Manager) UndoState() UndoState {
	t := m.now()
	if last := m.lastEntry(); last != nil {
		t = last.Time
	}
	return UndoState{
		Past:   len(m.past),
		Future: len(m.future),
		Time:   t,
	}
}
