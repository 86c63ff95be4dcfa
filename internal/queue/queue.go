package queue

import "context"

// Queue is an ordered, optionally bounded holding area for replication work
// belonging to one agent. Implementations must keep the item sequence and
// the status records consistent under concurrent producers, a single
// delivery worker, and arbitrary readers: an item visible through Items or
// Item always has a Status until the moment both are removed together.
//
// Add and Remove are the only structural mutations; the lifecycle methods
// (Begin, MarkError, Requeue, GiveUp) only advance the status record of an
// item already present. Reads return snapshots and never block behind an
// in-flight delivery.
type Queue interface {
	// Name returns the queue name, unique within its agent.
	Name() string

	// Add appends an item with a fresh status (attempts=0, entered=now,
	// state=queued). It returns false when a capacity bound rejects the
	// item; the queue is left unchanged in that case.
	Add(ctx context.Context, item Item) (bool, error)

	// Adopt inserts an item together with an existing status record,
	// preserving attempts and entered time. Used when relocating items
	// between queues (give-up parking, operator retry). Capacity bounds
	// apply as in Add.
	Adopt(ctx context.Context, item Item, status ItemStatus) (bool, error)

	// Items returns at most limit items starting at offset in insertion
	// order. Out-of-range offsets or limits yield fewer or zero items,
	// never an error.
	Items(ctx context.Context, offset, limit int) ([]Item, error)

	// Item looks up a queued item by id; nil when absent.
	Item(ctx context.Context, id string) (*Item, error)

	// Status returns the status record for a queued item. It fails with
	// ErrItemNotFound once the item has been removed.
	Status(ctx context.Context, id string) (ItemStatus, error)

	// Remove deletes an item and its status together. Removing an absent
	// id is a no-op returning false.
	Remove(ctx context.Context, id string) (bool, error)

	// Clear removes every item and returns how many were dropped.
	Clear(ctx context.Context) (int, error)

	IsEmpty(ctx context.Context) (bool, error)
	ItemsCount(ctx context.Context) (int, error)

	// State derives the queue state from the pause flag and the head item.
	State(ctx context.Context) (State, error)

	// SetPaused toggles the paused flag. The flag is a runtime property and
	// is not persisted by durable implementations.
	SetPaused(paused bool)

	// Head returns the first item in queue order together with a status
	// snapshot; nil when the queue is empty. Delivery is strictly ordered:
	// workers only ever dispatch or retry the head, so a head stuck in the
	// error state holds back everything behind it.
	Head(ctx context.Context) (*Item, ItemStatus, error)

	// Begin transitions an item from queued to active and increments its
	// attempt counter, returning the updated status.
	Begin(ctx context.Context, id string) (ItemStatus, error)

	// MarkError transitions an active item to the error state, recording
	// the failure reason.
	MarkError(ctx context.Context, id, reason string) error

	// Requeue transitions an item from error back to queued for another
	// attempt. Attempts and entered time are preserved.
	Requeue(ctx context.Context, id string) error

	// GiveUp transitions an item from error to given_up and returns the
	// final status. The item stays queued until the caller removes or
	// relocates it.
	GiveUp(ctx context.Context, id string) (ItemStatus, error)
}
