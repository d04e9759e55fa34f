package store

import (
	"slices"
	"sync"

	"github.com/dshills/undocore/internal/logging"
	"github.com/dshills/undocore/internal/undo"
)

// Change describes the result of a dispatch.
type Change struct {
	// Action is the dispatched action. After Resume it is the last action
	// dispatched while paused.
	Action undo.Action

	// Keys are the sections whose state changed, in registration order.
	// SummaryKey is included when the undo summary changed.
	Keys []undo.Key

	// State is the root state after the dispatch.
	State State
}

// Changed reports whether key is among the changed sections.
func (c Change) Changed(key undo.Key) bool {
	return slices.Contains(c.Keys, key)
}

// Listener is called after a dispatch.
type Listener func(change Change)

// Subscription represents an active listener subscription.
type Subscription struct {
	id       uint64
	notifier *notifier
}

// Unsubscribe removes this subscription. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type subscriber struct {
	key      undo.Key
	listener Listener
}

// notifier delivers changes to listeners in subscription order.
type notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]subscriber
	nextID uint64
	logger *logging.Logger
}

func newNotifier(logger *logging.Logger) *notifier {
	return &notifier{
		subs:   make(map[uint64]subscriber),
		logger: logger,
	}
}

// subscribe registers listener. An empty key receives every change;
// otherwise only changes to that section.
func (n *notifier) subscribe(key undo.Key, listener Listener) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = subscriber{key: key, listener: listener}

	return &Subscription{id: id, notifier: n}
}

func (n *notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

func (n *notifier) len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// deliver calls every matching listener outside the lock.
func (n *notifier) deliver(change Change) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.subs))
	for id, sub := range n.subs {
		if sub.key == "" || change.Changed(sub.key) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	listeners := make([]Listener, len(ids))
	for i, id := range ids {
		listeners[i] = n.subs[id].listener
	}
	n.mu.RUnlock()

	for _, l := range listeners {
		n.safeCall(l, change)
	}
}

func (n *notifier) safeCall(l Listener, change Change) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("listener panic on %s: %v", change.Action, r)
		}
	}()
	l(change)
}
