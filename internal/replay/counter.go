package replay

import (
	"github.com/dshills/undocore/internal/undo"
)

// Counter action types.
const (
	TypeIncrement undo.Type = "INCREMENT"
	TypeDecrement undo.Type = "DECREMENT"
	TypeSet       undo.Type = "SET"
)

// Counter is the state of a replay section.
type Counter struct {
	Value int
}

// CounterPayload addresses a counter action to one section.
type CounterPayload struct {
	Section undo.Key
	Amount  int
}

// CounterAction creates a counter action of type t for section.
func CounterAction(t undo.Type, section undo.Key, amount int) undo.Action {
	return undo.NewAction(t, CounterPayload{Section: section, Amount: amount})
}

// CounterReducer returns the reducer of the section key. Actions for other
// sections, and sets to the current value, return the state unchanged.
func CounterReducer(key undo.Key) undo.Reducer[*Counter] {
	return func(c *Counter, a undo.Action) *Counter {
		p, ok := a.Payload.(CounterPayload)
		if !ok || p.Section != key {
			return c
		}

		switch a.Type {
		case TypeIncrement:
			return &Counter{Value: c.Value + p.Amount}
		case TypeDecrement:
			return &Counter{Value: c.Value - p.Amount}
		case TypeSet:
			if c.Value == p.Amount {
				return c
			}
			return &Counter{Value: p.Amount}
		}
		return c
	}
}
