package store

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/dshills/undocore/internal/logging"
	"github.com/dshills/undocore/internal/undo"
)

// SummaryKey is the root state key of the undo summary, an undo.UndoState.
const SummaryKey undo.Key = "undo"

// TypePurge is dispatched by Purge. Section reducers should ignore it.
const TypePurge undo.Type = "@@undocore/PURGE"

// State is a root state snapshot keyed by section. Snapshots are never
// modified after a dispatch returns; treat them as read-only.
type State map[undo.Key]any

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger. The undo layers log through the same
// logger with component "undo".
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		s.logger = logging.OrNull(l)
	}
}

// WithUndoOptions passes options to the store's undo manager, enhancer and
// section managers.
func WithUndoOptions(opts ...undo.Option) Option {
	return func(s *Store) {
		s.undoOpts = append(s.undoOpts, opts...)
	}
}

type section struct {
	key    undo.Key
	reduce func(state any, a undo.Action) any
}

// summaryMark identifies a manager history so the summary section is only
// replaced when the history changed.
type summaryMark struct {
	past, future int
	last, next   *undo.HistoryEntry
}

// Store combines undoable sections under one root state.
type Store struct {
	id       uuid.UUID
	manager  *undo.Manager
	enhancer *undo.Enhancer
	undoOpts []undo.Option

	sections []section
	state    State
	mark     summaryMark

	dispatching bool
	paused      int
	pending     *Change

	notifier *notifier
	logger   *logging.Logger
}

// New creates a store with no sections. cfg configures how actions are
// classified by every section added later.
func New(cfg undo.EnhancerConfig, opts ...Option) *Store {
	s := &Store{
		id:     uuid.New(),
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("store").WithField("store", s.id.String())

	undoOpts := append([]undo.Option{undo.WithLogger(s.logger.WithComponent("undo"))}, s.undoOpts...)
	s.manager = undo.NewManager(undoOpts...)
	s.enhancer = undo.NewEnhancer(s.manager, cfg, undoOpts...)
	s.notifier = newNotifier(s.logger)
	s.state = State{}
	s.state[SummaryKey] = s.manager.UndoState()
	return s
}

// ID returns the store's unique id.
func (s *Store) ID() uuid.UUID {
	return s.id
}

// Manager returns the store's undo manager.
func (s *Store) Manager() *undo.Manager {
	return s.manager
}

// AddSection enhances reducer and adds it as the section key, starting
// from initial. Sections are reduced in the order they are added.
func AddSection[S any](s *Store, key undo.Key, initial S, reducer undo.Reducer[S]) error {
	if key == SummaryKey {
		return fmt.Errorf("%w: %q", ErrReservedKey, key)
	}
	if s.dispatching {
		return ErrReentrantDispatch
	}

	reduce, sm, err := undo.Enhance(s.enhancer, key, initial, reducer)
	if err != nil {
		return fmt.Errorf("add section %q: %w", key, err)
	}

	s.sections = append(s.sections, section{
		key: key,
		reduce: func(state any, a undo.Action) any {
			cur, _ := state.(S)
			return reduce(cur, a)
		},
	})

	next := maps.Clone(s.state)
	next[key] = sm.CurrentState()
	s.state = next

	s.logger.Debug("added section %q", key)
	return nil
}

// State returns the current root state.
func (s *Store) State() State {
	return s.state
}

// Get returns the state of the section key.
func Get[S any](s *Store, key undo.Key) (S, bool) {
	v, ok := s.state[key].(S)
	return v, ok
}

// UndoState returns the current undo summary.
func (s *Store) UndoState() undo.UndoState {
	us, _ := s.state[SummaryKey].(undo.UndoState)
	return us
}

// Dispatch runs a through every section, updates the undo summary and
// notifies subscribers. Actions without a sequence number get one.
func (s *Store) Dispatch(a undo.Action) error {
	if s.dispatching {
		return fmt.Errorf("%w: %s", ErrReentrantDispatch, a.Type)
	}
	s.dispatching = true
	defer func() { s.dispatching = false }()

	a = a.Sequenced()
	s.logger.Debug("dispatch %s", a)

	var (
		next    State
		changed []undo.Key
	)
	for _, sec := range s.sections {
		prev := s.state[sec.key]
		v := sec.reduce(prev, a)
		if undo.Same(v, prev) {
			continue
		}
		if next == nil {
			next = maps.Clone(s.state)
		}
		next[sec.key] = v
		changed = append(changed, sec.key)
	}

	if mark := s.summaryMark(); mark != s.mark {
		if next == nil {
			next = maps.Clone(s.state)
		}
		s.mark = mark
		next[SummaryKey] = s.manager.UndoState()
		changed = append(changed, SummaryKey)
	}

	if next != nil {
		s.state = next
	}

	s.notify(Change{Action: a, Keys: changed, State: s.state})
	return nil
}

func (s *Store) summaryMark() summaryMark {
	m := summaryMark{
		past:   len(s.manager.Past()),
		future: len(s.manager.Future()),
	}
	m.last, _ = s.manager.LastEntry()
	if f := s.manager.Future(); len(f) > 0 {
		m.next = f[0]
	}
	return m
}

// Init dispatches the store initialization action, which resets history.
func (s *Store) Init() error {
	return s.Dispatch(undo.NewAction(undo.TypeInit, nil))
}

// Undo dispatches an undo action.
func (s *Store) Undo() error { return s.Dispatch(undo.NewUndo()) }

// Redo dispatches a redo action.
func (s *Store) Redo() error { return s.Dispatch(undo.NewRedo()) }

// Jump dispatches a jump action.
func (s *Store) Jump(steps int) error { return s.Dispatch(undo.NewJump(steps)) }

// Transact dispatches an action opening a transaction.
func (s *Store) Transact() error { return s.Dispatch(undo.NewTransact()) }

// Commit dispatches an action committing the innermost transaction.
func (s *Store) Commit() error { return s.Dispatch(undo.NewCommit()) }

// Abort dispatches an action aborting the innermost transaction.
func (s *Store) Abort() error { return s.Dispatch(undo.NewAbort()) }

// Purge dispatches an action clearing all history.
func (s *Store) Purge() error {
	return s.Dispatch(undo.MakePurging(undo.NewAction(TypePurge, nil)))
}

// Transaction runs fn inside a transaction. The transaction is committed
// when fn succeeds and aborted when it returns an error, which is returned.
// If fn panics the transaction is aborted and the panic continues.
func (s *Store) Transaction(fn func() error) error {
	if err := s.Transact(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if err := s.Abort(); err != nil {
				s.logger.Error("abort after panic: %v", err)
			}
			panic(r)
		}
	}()
	if err := fn(); err != nil {
		if abortErr := s.Abort(); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}
	return s.Commit()
}

// Subscribe registers listener for every dispatch.
func (s *Store) Subscribe(listener Listener) *Subscription {
	return s.notifier.subscribe("", listener)
}

// SubscribeSection registers listener for dispatches that change key.
func (s *Store) SubscribeSection(key undo.Key, listener Listener) *Subscription {
	return s.notifier.subscribe(key, listener)
}

// Pause holds back notifications until a matching Resume. Pauses nest.
func (s *Store) Pause() {
	s.paused++
}

// Resume ends one Pause. When the last pause ends, subscribers receive one
// change covering every dispatch made while paused. Resume reports whether
// the store is still paused.
func (s *Store) Resume() bool {
	if s.paused == 0 {
		return false
	}
	s.paused--
	if s.paused > 0 {
		return true
	}

	if pending := s.pending; pending != nil {
		s.pending = nil
		pending.Keys = s.ordered(pending.Keys)
		pending.State = s.state
		s.notifier.deliver(*pending)
	}
	return false
}

// Paused reports whether notifications are held back.
func (s *Store) Paused() bool {
	return s.paused > 0
}

func (s *Store) notify(change Change) {
	if s.paused == 0 {
		s.notifier.deliver(change)
		return
	}

	if s.pending == nil {
		s.pending = &Change{}
	}
	s.pending.Action = change.Action
	for _, k := range change.Keys {
		if !s.pending.Changed(k) {
			s.pending.Keys = append(s.pending.Keys, k)
		}
	}
}

// ordered sorts keys by section registration order, SummaryKey last.
func (s *Store) ordered(keys []undo.Key) []undo.Key {
	rank := func(k undo.Key) int {
		i := slices.IndexFunc(s.sections, func(sec section) bool { return sec.key == k })
		if i < 0 {
			return len(s.sections)
		}
		return i
	}
	slices.SortStableFunc(keys, func(a, b undo.Key) int { return rank(a) - rank(b) })
	return keys
}
