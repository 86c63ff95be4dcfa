package queue

import (
	"strings"
	"time"

	"courier/internal/payload"
)

// ItemState represents the delivery lifecycle of a queue item.
type ItemState string

const (
	ItemQueued    ItemState = "queued"
	ItemActive    ItemState = "active"
	ItemSucceeded ItemState = "succeeded"
	ItemError     ItemState = "error"
	ItemGivenUp   ItemState = "given_up"
)

var allItemStates = []ItemState{
	ItemQueued,
	ItemActive,
	ItemSucceeded,
	ItemError,
	ItemGivenUp,
}

// AllItemStates returns the ordered list of known item states.
func AllItemStates() []ItemState {
	cp := make([]ItemState, len(allItemStates))
	copy(cp, allItemStates)
	return cp
}

// ParseItemState converts a string into a known ItemState.
func ParseItemState(value string) (ItemState, bool) {
	normalized := ItemState(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	for _, state := range allItemStates {
		if state == normalized {
			return normalized, true
		}
	}
	return "", false
}

// Terminal reports whether the state ends an item's lifecycle.
func (s ItemState) Terminal() bool {
	return s == ItemSucceeded || s == ItemGivenUp
}

// State represents the operational state of a whole queue.
type State string

const (
	StateRunning State = "running"
	StateBlocked State = "blocked"
	StatePaused  State = "paused"
)

// Item is one unit of replication work held by a queue. The ID equals the
// package ID and stays stable across delivery attempts; neither field is
// mutated after creation.
type Item struct {
	ID      string
	Package payload.Package
}

// NewItem wraps a package descriptor as a queue item.
func NewItem(pkg payload.Package) Item {
	return Item{ID: pkg.ID, Package: pkg}
}

// ItemStatus is the mutable delivery-tracking record paired with an Item.
// It is owned exclusively by the queue holding the item.
type ItemStatus struct {
	Attempts  int
	Entered   time.Time
	State     ItemState
	LastError string
}

func newStatus(now time.Time) ItemStatus {
	return ItemStatus{Attempts: 0, Entered: now.UTC(), State: ItemQueued}
}

// deriveState computes the queue state from the pause flag and the head
// status. A queue is blocked while its head item sits in the error state or
// waits for a retry after at least one failed attempt.
func deriveState(paused bool, head *ItemStatus) State {
	if paused {
		return StatePaused
	}
	if head != nil {
		if head.State == ItemError {
			return StateBlocked
		}
		if head.State == ItemQueued && head.Attempts > 0 {
			return StateBlocked
		}
	}
	return StateRunning
}
