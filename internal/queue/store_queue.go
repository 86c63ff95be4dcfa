package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"courier/internal/payload"
)

const itemColumns = "item_id, package_json, attempts, entered, state, last_error"

// sqliteQueue is a durable Queue view over one (agent, queue) pair.
type sqliteQueue struct {
	store    *Store
	agent    string
	name     string
	capacity int
	paused   atomic.Bool
}

// Queue exposes one (agent, queue) pair of the store as a Queue. A capacity
// of zero or less means unbounded. The pause flag lives on the view, not in
// the database.
func (s *Store) Queue(agent, name string, capacity int) Queue {
	return &sqliteQueue{store: s, agent: agent, name: name, capacity: capacity}
}

func (q *sqliteQueue) Name() string { return q.name }

func (q *sqliteQueue) Add(ctx context.Context, item Item) (bool, error) {
	return q.insert(ctx, item, newStatus(time.Now()))
}

func (q *sqliteQueue) Adopt(ctx context.Context, item Item, status ItemStatus) (bool, error) {
	return q.insert(ctx, item, status)
}

func (q *sqliteQueue) insert(ctx context.Context, item Item, status ItemStatus) (bool, error) {
	body, err := json.Marshal(item.Package)
	if err != nil {
		return false, fmt.Errorf("encode package %s: %w", item.ID, err)
	}
	accepted := false
	err = retryOnBusy(ensureContext(ctx), func() error {
		accepted = false
		return q.store.withTx(ctx, func(tx *sql.Tx) error {
			if q.capacity > 0 {
				var count int
				if err := tx.QueryRowContext(ctx,
					`SELECT COUNT(1) FROM queue_items WHERE agent = ? AND queue = ?`,
					q.agent, q.name,
				).Scan(&count); err != nil {
					return fmt.Errorf("count items: %w", err)
				}
				if count >= q.capacity {
					return nil
				}
			}
			var dup int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(1) FROM queue_items WHERE agent = ? AND queue = ? AND item_id = ?`,
				q.agent, q.name, item.ID,
			).Scan(&dup); err != nil {
				return fmt.Errorf("check duplicate: %w", err)
			}
			if dup > 0 {
				return nil
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO queue_items (agent, queue, item_id, package_json, state, attempts, entered, updated_at, last_error)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				q.agent, q.name, item.ID, string(body),
				status.State, status.Attempts,
				status.Entered.UTC().Format(time.RFC3339Nano),
				time.Now().UTC().Format(time.RFC3339Nano),
				nullableString(status.LastError),
			); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
			accepted = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	return accepted, nil
}

func (q *sqliteQueue) Items(ctx context.Context, offset, limit int) ([]Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := q.store.db.QueryContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE agent = ? AND queue = ? ORDER BY seq LIMIT ? OFFSET ?`,
		q.agent, q.name, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, _, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (q *sqliteQueue) Item(ctx context.Context, id string) (*Item, error) {
	row := q.store.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE agent = ? AND queue = ? AND item_id = ?`,
		q.agent, q.name, id,
	)
	item, _, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (q *sqliteQueue) Status(ctx context.Context, id string) (ItemStatus, error) {
	row := q.store.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE agent = ? AND queue = ? AND item_id = ?`,
		q.agent, q.name, id,
	)
	_, status, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ItemStatus{}, ErrItemNotFound
	}
	if err != nil {
		return ItemStatus{}, err
	}
	return status, nil
}

func (q *sqliteQueue) Remove(ctx context.Context, id string) (bool, error) {
	res, err := q.store.execWithRetry(ctx,
		`DELETE FROM queue_items WHERE agent = ? AND queue = ? AND item_id = ?`,
		q.agent, q.name, id,
	)
	if err != nil {
		return false, fmt.Errorf("remove item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

func (q *sqliteQueue) Clear(ctx context.Context) (int, error) {
	res, err := q.store.execWithRetry(ctx,
		`DELETE FROM queue_items WHERE agent = ? AND queue = ?`,
		q.agent, q.name,
	)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(affected), nil
}

func (q *sqliteQueue) IsEmpty(ctx context.Context) (bool, error) {
	count, err := q.ItemsCount(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (q *sqliteQueue) ItemsCount(ctx context.Context) (int, error) {
	var count int
	if err := q.store.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM queue_items WHERE agent = ? AND queue = ?`,
		q.agent, q.name,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func (q *sqliteQueue) State(ctx context.Context) (State, error) {
	item, status, err := q.Head(ctx)
	if err != nil {
		return "", err
	}
	var head *ItemStatus
	if item != nil {
		head = &status
	}
	return deriveState(q.paused.Load(), head), nil
}

func (q *sqliteQueue) SetPaused(paused bool) {
	q.paused.Store(paused)
}

func (q *sqliteQueue) Head(ctx context.Context) (*Item, ItemStatus, error) {
	row := q.store.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE agent = ? AND queue = ? ORDER BY seq LIMIT 1`,
		q.agent, q.name,
	)
	item, status, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ItemStatus{}, nil
	}
	if err != nil {
		return nil, ItemStatus{}, err
	}
	return &item, status, nil
}

func (q *sqliteQueue) Begin(ctx context.Context, id string) (ItemStatus, error) {
	return q.transition(ctx, id, ItemQueued, ItemActive, ", attempts = attempts + 1")
}

func (q *sqliteQueue) MarkError(ctx context.Context, id, reason string) error {
	_, err := q.transition(ctx, id, ItemActive, ItemError, ", last_error = ?", reason)
	return err
}

func (q *sqliteQueue) Requeue(ctx context.Context, id string) error {
	_, err := q.transition(ctx, id, ItemError, ItemQueued, "")
	return err
}

func (q *sqliteQueue) GiveUp(ctx context.Context, id string) (ItemStatus, error) {
	return q.transition(ctx, id, ItemError, ItemGivenUp, "")
}

// transition moves an item from one state to another in a single
// transaction and returns the resulting status. The conditional UPDATE
// enforces the state machine; a miss is classified as either an absent
// item or a wrong-state transition.
func (q *sqliteQueue) transition(ctx context.Context, id string, from, to ItemState, set string, extra ...any) (ItemStatus, error) {
	var status ItemStatus
	err := retryOnBusy(ensureContext(ctx), func() error {
		return q.store.withTx(ctx, func(tx *sql.Tx) error {
			query := `UPDATE queue_items SET state = ?, updated_at = ?` + set +
				` WHERE agent = ? AND queue = ? AND item_id = ? AND state = ?`
			args := append([]any{to, time.Now().UTC().Format(time.RFC3339Nano)}, extra...)
			args = append(args, q.agent, q.name, id, from)
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("transition %s to %s: %w", id, to, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				var current string
				scanErr := tx.QueryRowContext(ctx,
					`SELECT state FROM queue_items WHERE agent = ? AND queue = ? AND item_id = ?`,
					q.agent, q.name, id,
				).Scan(&current)
				if errors.Is(scanErr, sql.ErrNoRows) {
					return ErrItemNotFound
				}
				if scanErr != nil {
					return fmt.Errorf("read state: %w", scanErr)
				}
				return &TransitionError{ItemID: id, From: ItemState(current), To: to}
			}
			row := tx.QueryRowContext(ctx,
				`SELECT `+itemColumns+` FROM queue_items WHERE agent = ? AND queue = ? AND item_id = ?`,
				q.agent, q.name, id,
			)
			_, updated, scanErr := scanEntry(row)
			if scanErr != nil {
				return scanErr
			}
			status = updated
			return nil
		})
	})
	if err != nil {
		return ItemStatus{}, err
	}
	return status, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Item, ItemStatus, error) {
	var (
		itemID     string
		body       string
		attempts   int
		enteredRaw string
		stateStr   string
		lastError  sql.NullString
	)
	if err := scanner.Scan(&itemID, &body, &attempts, &enteredRaw, &stateStr, &lastError); err != nil {
		return Item{}, ItemStatus{}, err
	}
	var pkg payload.Package
	if err := json.Unmarshal([]byte(body), &pkg); err != nil {
		return Item{}, ItemStatus{}, fmt.Errorf("decode package %s: %w", itemID, err)
	}
	entered, err := time.Parse(time.RFC3339Nano, enteredRaw)
	if err != nil {
		return Item{}, ItemStatus{}, fmt.Errorf("parse entered time for %s: %w", itemID, err)
	}
	item := Item{ID: itemID, Package: pkg}
	status := ItemStatus{
		Attempts:  attempts,
		Entered:   entered,
		State:     ItemState(stateStr),
		LastError: lastError.String,
	}
	return item, status, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
