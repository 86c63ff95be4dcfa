package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"courier/internal/config"
	"courier/internal/logging"
	"courier/internal/queue"
)

// Start launches one delivery worker per configured queue. The error queue
// gets no worker; it only parks given-up items.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("agent %s already running", a.name)
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true
	a.wg.Add(len(a.workers))
	a.mu.Unlock()

	for _, name := range a.workers {
		go a.runWorker(runCtx, a.queues[name])
	}
	return nil
}

// Stop terminates the delivery workers and waits for them to exit.
func (a *Agent) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	cancel := a.cancel
	a.running = false
	a.cancel = nil
	a.mu.Unlock()

	cancel()
	a.wg.Wait()
}

// runWorker drains one queue. A single consumer per queue preserves FIFO
// order; the worker only ever acts on the head item.
func (a *Agent) runWorker(ctx context.Context, q queue.Queue) {
	defer a.wg.Done()

	logger := a.logger.With(
		logging.String(logging.FieldComponent, "delivery-worker"),
		logging.String(logging.FieldQueue, q.Name()),
	)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		advanced, err := a.processHead(ctx, q, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("queue processing failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_processing_failed"),
			)
			if !a.waitOrShutdown(ctx, a.settings.PollInterval) {
				return
			}
			continue
		}
		if !advanced {
			if !a.waitOrShutdown(ctx, a.settings.PollInterval) {
				return
			}
		}
	}
}

// processHead inspects the head item and applies exactly one lifecycle step.
// It reports whether the queue advanced; false means there is nothing to do
// until the next poll.
func (a *Agent) processHead(ctx context.Context, q queue.Queue, logger *slog.Logger) (bool, error) {
	head, status, err := q.Head(ctx)
	if err != nil {
		return false, fmt.Errorf("read queue head: %w", err)
	}
	if head == nil {
		return false, nil
	}

	switch status.State {
	case queue.ItemQueued:
		if a.paused.Load() {
			return false, nil
		}
		return true, a.dispatch(ctx, q, *head, logger)

	case queue.ItemActive:
		// A single consumer never observes its own in-flight delivery, so an
		// active head means a previous terminal update was lost. Resolve it
		// to error and let the retry policy decide.
		if err := q.MarkError(ctx, head.ID, "delivery outcome unknown"); err != nil {
			return true, ignoreLostRace(err)
		}
		return true, nil

	case queue.ItemError:
		if status.Attempts >= a.policy.MaxAttempts {
			return true, a.giveUp(ctx, q, *head, status, logger)
		}
		if !a.waitOrShutdown(ctx, a.settings.RetryDelay) {
			return false, ctx.Err()
		}
		if err := q.Requeue(ctx, head.ID); err != nil {
			return true, ignoreLostRace(err)
		}
		a.activity.Record("requeued item %s on %s for attempt %d", head.ID, q.Name(), status.Attempts+1)
		return true, nil

	case queue.ItemGivenUp:
		// Crash recovery: give-up was recorded but the relocation never ran.
		return true, a.finishGivenUp(ctx, q, *head, status, logger)

	default:
		return false, fmt.Errorf("unexpected head state %q for item %s", status.State, head.ID)
	}
}

// dispatch performs one delivery attempt for the head item. Whatever the
// deliverer does, the item deterministically ends up removed (success) or in
// the error state (failure) unless the daemon is shutting down.
func (a *Agent) dispatch(ctx context.Context, q queue.Queue, item queue.Item, logger *slog.Logger) error {
	if a.paused.Load() {
		// Paused between the head read and the activation.
		return nil
	}
	status, err := q.Begin(ctx, item.ID)
	if err != nil {
		return ignoreLostRace(err)
	}

	logger.Info("delivering item",
		logging.String(logging.FieldItemID, item.ID),
		logging.Int(logging.FieldAttempt, status.Attempts),
		logging.String(logging.FieldEndpoint, a.endpoint),
	)

	start := time.Now()
	deliverErr := a.attemptDelivery(ctx, item)
	if deliverErr == nil {
		if _, err := q.Remove(ctx, item.ID); err != nil {
			return fmt.Errorf("remove delivered item: %w", err)
		}
		a.activity.Record("delivered item %s from %s (attempt %d)", item.ID, q.Name(), status.Attempts)
		logger.Info("item delivered",
			logging.String(logging.FieldItemID, item.ID),
			logging.Int(logging.FieldAttempt, status.Attempts),
			logging.Duration("duration", time.Since(start)),
		)
		return nil
	}

	if ctx.Err() != nil {
		// Shutdown mid-delivery. Leave the item active; restart recovery
		// returns it to queued with the attempt preserved.
		return ctx.Err()
	}

	reason := deliverErr.Error()
	if err := q.MarkError(ctx, item.ID, reason); err != nil {
		return ignoreLostRace(err)
	}
	a.activity.Record("delivery of item %s failed (attempt %d): %s", item.ID, status.Attempts, reason)
	logger.Warn("delivery attempt failed",
		logging.String(logging.FieldItemID, item.ID),
		logging.Int(logging.FieldAttempt, status.Attempts),
		logging.Error(deliverErr),
		logging.String(logging.FieldEventType, "delivery_failed"),
	)
	if status.Attempts == 1 {
		// First failure flips the queue from running to blocked.
		a.notifyBlocked(ctx, q.Name())
	}
	return nil
}

// attemptDelivery invokes the deliverer. A panicking deliverer still
// resolves to a failed attempt instead of killing the worker.
func (a *Agent) attemptDelivery(ctx context.Context, item queue.Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("delivery panic: %v", r)
		}
	}()
	return a.deliverer.Deliver(ctx, a.endpoint, item.Package)
}

// giveUp marks the exhausted head as given up and applies the policy.
func (a *Agent) giveUp(ctx context.Context, q queue.Queue, item queue.Item, status queue.ItemStatus, logger *slog.Logger) error {
	final, err := q.GiveUp(ctx, item.ID)
	if err != nil {
		return ignoreLostRace(err)
	}
	return a.finishGivenUp(ctx, q, item, final, logger)
}

// finishGivenUp relocates or drops a given-up item per the agent policy.
// Adopt tolerates duplicates, so re-running after a crash is safe.
func (a *Agent) finishGivenUp(ctx context.Context, q queue.Queue, item queue.Item, status queue.ItemStatus, logger *slog.Logger) error {
	destination := "dropped"
	if a.policy.OnGiveUp == config.GiveUpErrorQueue && q.Name() != config.ErrorQueueName {
		errQ, ok := a.queues[config.ErrorQueueName]
		if ok {
			if _, err := errQ.Adopt(ctx, item, status); err != nil {
				return fmt.Errorf("park item on error queue: %w", err)
			}
			destination = "moved to error queue"
		}
	}
	if _, err := q.Remove(ctx, item.ID); err != nil {
		return fmt.Errorf("remove given-up item: %w", err)
	}

	a.activity.Record("gave up on item %s after %d attempts (%s)", item.ID, status.Attempts, destination)
	logger.Error("giving up on item",
		logging.String(logging.FieldItemID, item.ID),
		logging.Int(logging.FieldAttempt, status.Attempts),
		logging.String("resolution", destination),
		logging.String("last_error", status.LastError),
		logging.String(logging.FieldEventType, "item_given_up"),
	)
	a.notifyGivenUp(ctx, q.Name(), item.ID, status)
	return nil
}

func (a *Agent) notifyBlocked(ctx context.Context, queueName string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.NotifyAgentBlocked(ctx, a.name, queueName); err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Debug("shutdown interrupted blocked notification")
		} else {
			a.logger.Debug("blocked notification failed", logging.Error(err))
		}
	}
}

func (a *Agent) notifyGivenUp(ctx context.Context, queueName, itemID string, status queue.ItemStatus) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.NotifyItemGivenUp(ctx, a.name, queueName, itemID, status.Attempts, status.LastError); err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Debug("shutdown interrupted give-up notification")
		} else {
			a.logger.Debug("give-up notification failed", logging.Error(err))
		}
	}
}

// waitOrShutdown sleeps for d or until the context ends. It reports false
// when the context ended first.
func (a *Agent) waitOrShutdown(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// ignoreLostRace drops errors caused by operator commands racing the worker.
// Removing or retrying an item between the worker's read and its transition
// is legitimate; the worker just moves on.
func ignoreLostRace(err error) error {
	if err == nil {
		return nil
	}
	var transitionErr *queue.TransitionError
	if errors.As(err, &transitionErr) || errors.Is(err, queue.ErrItemNotFound) {
		return nil
	}
	return err
}
