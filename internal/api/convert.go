package api

import (
	"context"
	"errors"
	"time"

	"courier/internal/agent"
	"courier/internal/preflight"
	"courier/internal/queue"
)

// FromItem converts a queue record and its status to the API representation.
func FromItem(queueName string, item queue.Item, status queue.ItemStatus) Item {
	dto := Item{
		ID:        item.ID,
		Queue:     queueName,
		Paths:     append([]string(nil), item.Package.Paths...),
		Action:    string(item.Package.Action),
		Type:      item.Package.Type,
		Attempts:  status.Attempts,
		State:     string(status.State),
		LastError: status.LastError,
	}
	if !status.Entered.IsZero() {
		dto.Entered = status.Entered.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromQueue reads a consistent summary snapshot of one queue.
func FromQueue(ctx context.Context, q queue.Queue) (QueueSummary, error) {
	state, err := q.State(ctx)
	if err != nil {
		return QueueSummary{}, err
	}
	empty, err := q.IsEmpty(ctx)
	if err != nil {
		return QueueSummary{}, err
	}
	count, err := q.ItemsCount(ctx)
	if err != nil {
		return QueueSummary{}, err
	}
	return QueueSummary{
		Name:       q.Name(),
		State:      string(state),
		Empty:      empty,
		ItemsCount: count,
	}, nil
}

// FromAgent builds an agent summary including per-queue snapshots.
func FromAgent(ctx context.Context, ag *agent.Agent) (AgentSummary, error) {
	state, err := ag.State(ctx)
	if err != nil {
		return AgentSummary{}, err
	}
	names := ag.QueueNames()
	queues := make([]QueueSummary, 0, len(names))
	for _, name := range names {
		q, err := ag.Queue(name)
		if err != nil {
			return AgentSummary{}, err
		}
		summary, err := FromQueue(ctx, q)
		if err != nil {
			return AgentSummary{}, err
		}
		queues = append(queues, summary)
	}
	return AgentSummary{
		Name:     ag.Name(),
		Endpoint: ag.Endpoint(),
		State:    string(state),
		Paused:   ag.IsPaused(),
		Queues:   queues,
	}, nil
}

// ItemsSnapshot lists up to limit items with their statuses in queue order.
// Items removed between the listing and the status read are skipped.
func ItemsSnapshot(ctx context.Context, q queue.Queue, offset, limit int) ([]Item, error) {
	items, err := q.Items(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(items))
	for _, item := range items {
		status, err := q.Status(ctx, item.ID)
		if err != nil {
			if errors.Is(err, queue.ErrItemNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, FromItem(q.Name(), item, status))
	}
	return out, nil
}

// FromChecks converts verification results into API health checks.
func FromChecks(results []preflight.Result) []HealthCheck {
	if len(results) == 0 {
		return nil
	}
	out := make([]HealthCheck, 0, len(results))
	for _, res := range results {
		out = append(out, HealthCheck{Name: res.Name, Passed: res.Passed, Detail: res.Detail})
	}
	return out
}

// FormatTime converts a time to the API timestamp format, empty for zero.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
