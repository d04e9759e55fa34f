package undo

import (
	"errors"
	"slices"

	"github.com/dshills/undocore/internal/logging"
)

// Reducer computes the next state of a section from an action.
// Returning the given state means nothing changed.
type Reducer[S any] func(state S, a Action) S

// Predicate inspects an action together with the section's next and
// previous state.
type Predicate func(a Action, next, prev any) bool

// EnhancerConfig configures how enhanced reducers classify actions.
type EnhancerConfig struct {
	// InitTypes are action types that reset all history.
	// Defaults to TypeInit and TypeReduxInit.
	InitTypes []Type

	// PurgeOn reports whether an action clears all history in addition
	// to actions marked UndoPurge.
	PurgeOn Predicate

	// Filter reports whether an action is undoable in addition to
	// actions marked Undoable.
	Filter Predicate
}

// DefaultInitTypes returns the action types that reset history by default.
func DefaultInitTypes() []Type {
	return []Type{TypeReduxInit, TypeInit}
}

func never(Action, any, any) bool { return false }

// Enhancer wraps section reducers so they take part in undo.
type Enhancer struct {
	manager   *Manager
	initTypes []Type
	purgeOn   Predicate
	filter    Predicate
	equal     func(a, b any) bool
	opts      []Option
	logger    *logging.Logger
}

// NewEnhancer creates an enhancer registering sections with manager.
// The options are also applied to every SectionManager it creates.
func NewEnhancer(manager *Manager, cfg EnhancerConfig, opts ...Option) *Enhancer {
	o := buildOptions(opts)
	e := &Enhancer{
		manager:   manager,
		initTypes: slices.Clone(cfg.InitTypes),
		purgeOn:   cfg.PurgeOn,
		filter:    cfg.Filter,
		equal:     o.equal,
		opts:      opts,
		logger:    o.logger,
	}
	if e.initTypes == nil {
		e.initTypes = DefaultInitTypes()
	}
	if e.purgeOn == nil {
		e.purgeOn = never
	}
	if e.filter == nil {
		e.filter = never
	}
	return e
}

// Manager returns the manager sections are registered with.
func (e *Enhancer) Manager() *Manager {
	return e.manager
}

func (e *Enhancer) isInit(t Type) bool {
	return slices.Contains(e.initTypes, t)
}

// Enhance wraps reducer as the section key, starting from initial.
// It returns the wrapped reducer and the section's manager.
func Enhance[S any](e *Enhancer, key Key, initial S, reducer Reducer[S]) (Reducer[S], *SectionManager[S], error) {
	section := NewSectionManager(initial, e.opts...)
	if err := e.manager.Register(key, section); err != nil {
		return nil, nil, err
	}
	log := e.logger.WithField("section", string(key))

	wrapped := func(state S, a Action) S {
		if a.Type.IsControl() {
			e.control(log, a)
			return section.CurrentState()
		}

		next := reducer(state, a)

		if e.isInit(a.Type) {
			if e.manager.HasHistory() {
				log.Info("store init %s: purging existing history", a)
			}
			e.manager.Purge(a)
			e.manager.Patch(key, next, a)
			return section.CurrentState()
		}

		if a.UndoPurge || e.purgeOn(a, next, state) {
			e.manager.Purge(a)
		}

		if e.equal(next, state) {
			return state
		}

		if a.Undoable || e.filter(a, next, state) {
			e.manager.Insert(key, next, a)
		} else {
			e.manager.Patch(key, next, a)
		}

		return section.CurrentState()
	}

	return wrapped, section, nil
}

// control routes a control action to the manager and logs its outcome.
func (e *Enhancer) control(log *logging.Logger, a Action) {
	var err error
	switch a.Type {
	case TypeUndo:
		err = e.manager.Undo(a)
	case TypeRedo:
		err = e.manager.Redo(a)
	case TypeJump:
		err = e.manager.Jump(a.Steps, a)
	case TypeTransact:
		e.manager.Transact(a)
	case TypeCommit:
		err = e.manager.Commit(a)
	case TypeAbort:
		err = e.manager.Abort(a)
	}

	switch {
	case err == nil:
	case errors.Is(err, ErrNothingToUndo), errors.Is(err, ErrNothingToRedo):
		log.Warn("%s: %v", a, err)
	default:
		log.Error("%s: %v", a, err)
	}
}
