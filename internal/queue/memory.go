package queue

import (
	"context"
	"sync"
	"time"
)

// memoryQueue is the volatile Queue implementation. A single mutex guards
// the item order and the status map so the pair always mutates together;
// reads copy out snapshots instead of holding the lock for the caller.
type memoryQueue struct {
	name     string
	capacity int

	mu      sync.RWMutex
	order   []string
	entries map[string]*memoryEntry
	paused  bool
}

type memoryEntry struct {
	item   Item
	status ItemStatus
}

// NewMemory builds an in-memory queue. A capacity of zero or less means
// unbounded.
func NewMemory(name string, capacity int) Queue {
	return &memoryQueue{
		name:     name,
		capacity: capacity,
		entries:  make(map[string]*memoryEntry),
	}
}

func (q *memoryQueue) Name() string { return q.name }

func (q *memoryQueue) Add(_ context.Context, item Item) (bool, error) {
	return q.insert(item, newStatus(time.Now()))
}

func (q *memoryQueue) Adopt(_ context.Context, item Item, status ItemStatus) (bool, error) {
	return q.insert(item, status)
}

func (q *memoryQueue) insert(item Item, status ItemStatus) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.capacity > 0 && len(q.order) >= q.capacity {
		return false, nil
	}
	if _, exists := q.entries[item.ID]; exists {
		return false, nil
	}
	q.order = append(q.order, item.ID)
	q.entries[item.ID] = &memoryEntry{item: item, status: status}
	return true, nil
}

func (q *memoryQueue) Items(_ context.Context, offset, limit int) ([]Item, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(q.order) || limit <= 0 {
		return nil, nil
	}
	end := offset + limit
	if end > len(q.order) {
		end = len(q.order)
	}
	items := make([]Item, 0, end-offset)
	for _, id := range q.order[offset:end] {
		items = append(items, q.entries[id].item)
	}
	return items, nil
}

func (q *memoryQueue) Item(_ context.Context, id string) (*Item, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	entry, ok := q.entries[id]
	if !ok {
		return nil, nil
	}
	item := entry.item
	return &item, nil
}

func (q *memoryQueue) Status(_ context.Context, id string) (ItemStatus, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	entry, ok := q.entries[id]
	if !ok {
		return ItemStatus{}, ErrItemNotFound
	}
	return entry.status, nil
}

func (q *memoryQueue) Remove(_ context.Context, id string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(id), nil
}

func (q *memoryQueue) removeLocked(id string) bool {
	if _, ok := q.entries[id]; !ok {
		return false
	}
	delete(q.entries, id)
	for i, candidate := range q.order {
		if candidate == id {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
	return true
}

func (q *memoryQueue) Clear(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := len(q.order)
	q.order = nil
	q.entries = make(map[string]*memoryEntry)
	return removed, nil
}

func (q *memoryQueue) IsEmpty(_ context.Context) (bool, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.order) == 0, nil
}

func (q *memoryQueue) ItemsCount(_ context.Context) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.order), nil
}

func (q *memoryQueue) State(_ context.Context) (State, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var head *ItemStatus
	if len(q.order) > 0 {
		status := q.entries[q.order[0]].status
		head = &status
	}
	return deriveState(q.paused, head), nil
}

func (q *memoryQueue) SetPaused(paused bool) {
	q.mu.Lock()
	q.paused = paused
	q.mu.Unlock()
}

func (q *memoryQueue) Head(_ context.Context) (*Item, ItemStatus, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if len(q.order) == 0 {
		return nil, ItemStatus{}, nil
	}
	entry := q.entries[q.order[0]]
	item := entry.item
	return &item, entry.status, nil
}

func (q *memoryQueue) Begin(_ context.Context, id string) (ItemStatus, error) {
	return q.transition(id, ItemQueued, ItemActive, func(status *ItemStatus) {
		status.Attempts++
	})
}

func (q *memoryQueue) MarkError(_ context.Context, id, reason string) error {
	_, err := q.transition(id, ItemActive, ItemError, func(status *ItemStatus) {
		status.LastError = reason
	})
	return err
}

func (q *memoryQueue) Requeue(_ context.Context, id string) error {
	_, err := q.transition(id, ItemError, ItemQueued, nil)
	return err
}

func (q *memoryQueue) GiveUp(_ context.Context, id string) (ItemStatus, error) {
	return q.transition(id, ItemError, ItemGivenUp, nil)
}

func (q *memoryQueue) transition(id string, from, to ItemState, mutate func(*ItemStatus)) (ItemStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.entries[id]
	if !ok {
		return ItemStatus{}, ErrItemNotFound
	}
	if entry.status.State != from {
		return ItemStatus{}, &TransitionError{ItemID: id, From: entry.status.State, To: to}
	}
	entry.status.State = to
	if mutate != nil {
		mutate(&entry.status)
	}
	return entry.status, nil
}
