package queue

import (
	"errors"
	"fmt"
)

// ErrItemNotFound is returned by status lookups and lifecycle transitions
// when the item is no longer (or never was) queued.
var ErrItemNotFound = errors.New("queue item not found")

// ErrQueueFull reports that an add was rejected by a capacity bound. Callers
// treat it as backpressure rather than a fatal error.
var ErrQueueFull = errors.New("queue is full")

// TransitionError reports a lifecycle call against an item in the wrong
// state, e.g. beginning delivery of an item that is not queued.
type TransitionError struct {
	ItemID string
	From   ItemState
	To     ItemState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("item %s: invalid transition %s -> %s", e.ItemID, e.From, e.To)
}
