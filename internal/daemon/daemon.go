package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"courier/internal/agent"
	"courier/internal/api"
	"courier/internal/config"
	"courier/internal/logging"
	"courier/internal/notifications"
	"courier/internal/payload"
	"courier/internal/preflight"
	"courier/internal/projection"
	"courier/internal/queue"
)

// retryBatchLimit bounds how many parked items a single retry-all sweep
// pulls from the error queue.
const retryBatchLimit = 1000

// Daemon coordinates the delivery agents and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	registry *agent.Registry
	notifier notifications.Service
	provider *projection.Provider
	apiSrv   *apiServer

	lockPath string
	lock     *flock.Flock

	mu     sync.Mutex
	checks []preflight.Result

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies. A nil notifier is
// replaced with one built from the configuration.
func New(cfg *config.Config, store *queue.Store, registry *agent.Registry, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || registry == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, registry, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		notifier: notifier,
		provider: projection.NewProvider(registry, cfg.Delivery.ItemListCap),
		lockPath: cfg.LockPath(),
	}
	d.lock = flock.New(d.lockPath)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.apiSrv = srv
	return d, nil
}

// Start acquires the daemon lock, requeues interrupted deliveries, and
// launches the delivery workers and the HTTP API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another courier daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.runChecks(d.ctx)

	// Deliveries cut off by the previous shutdown return to queued with
	// their attempt count preserved.
	restored, err := d.store.ResetActive(d.ctx)
	if err != nil {
		d.abortStart()
		return fmt.Errorf("requeue interrupted deliveries: %w", err)
	}
	if restored > 0 {
		d.logger.Info("requeued interrupted deliveries", logging.Int64("items", restored))
	}

	if err := d.registry.StartAll(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start agents: %w", err)
	}

	if err := d.apiSrv.start(d.ctx); err != nil {
		d.registry.StopAll()
		d.abortStart()
		return err
	}

	d.running.Store(true)
	d.logger.Info("courier daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("agents", len(d.registry.Names())))
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

func (d *Daemon) runChecks(ctx context.Context) {
	results := preflight.RunAll(ctx, d.cfg)
	for _, check := range results {
		if check.Passed {
			continue
		}
		d.logger.Warn("startup check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail))
	}
	d.mu.Lock()
	d.checks = results
	d.mu.Unlock()
}

// Stop halts delivery workers and the API server and releases the lock.
// In-flight deliveries finish through context cancellation and restart
// recovery.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiSrv.stop()
	d.registry.StopAll()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("courier daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Projection returns the resource view provider backed by the live registry.
func (d *Daemon) Projection() *projection.Provider {
	return d.provider
}

// AgentSummaries snapshots every registered agent in registry order.
func (d *Daemon) AgentSummaries(ctx context.Context) ([]api.AgentSummary, error) {
	agents := d.registry.All()
	summaries := make([]api.AgentSummary, 0, len(agents))
	for _, ag := range agents {
		summary, err := api.FromAgent(ctx, ag)
		if err != nil {
			return nil, fmt.Errorf("summarize agent %s: %w", ag.Name(), err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Status aggregates daemon runtime information across all agents.
func (d *Daemon) Status(ctx context.Context) (api.DaemonStatus, error) {
	summaries, err := d.AgentSummaries(ctx)
	if err != nil {
		return api.DaemonStatus{}, err
	}
	d.mu.Lock()
	checks := api.FromChecks(d.checks)
	d.mu.Unlock()
	return api.DaemonStatus{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		SocketPath:   d.cfg.SocketPath(),
		Agents:       summaries,
		Checks:       checks,
	}, nil
}

// PauseAgent stops new delivery activations for one agent and returns the
// resulting snapshot.
func (d *Daemon) PauseAgent(ctx context.Context, name string) (api.AgentSummary, error) {
	ag, err := d.registry.Lookup(name)
	if err != nil {
		return api.AgentSummary{}, err
	}
	ag.Pause()
	return api.FromAgent(ctx, ag)
}

// ResumeAgent restarts delivery activations for one agent and returns the
// resulting snapshot.
func (d *Daemon) ResumeAgent(ctx context.Context, name string) (api.AgentSummary, error) {
	ag, err := d.registry.Lookup(name)
	if err != nil {
		return api.AgentSummary{}, err
	}
	ag.Resume()
	return api.FromAgent(ctx, ag)
}

// AgentActivity returns the newest activity lines recorded for one agent,
// oldest first. A non-positive limit returns everything the ring holds.
func (d *Daemon) AgentActivity(name string, limit int) ([]string, error) {
	ag, err := d.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	lines := ag.Log().Lines()
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines, nil
}

// Queue resolves one queue of one agent.
func (d *Daemon) Queue(agentName, queueName string) (queue.Queue, error) {
	ag, err := d.registry.Lookup(agentName)
	if err != nil {
		return nil, err
	}
	return ag.Queue(queueName)
}

// QueueItems lists a bounded page of items with their delivery statuses.
// A non-positive or oversized limit falls back to the configured cap.
func (d *Daemon) QueueItems(ctx context.Context, agentName, queueName string, offset, limit int) ([]api.Item, error) {
	q, err := d.Queue(agentName, queueName)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > d.cfg.Delivery.ItemListCap {
		limit = d.cfg.Delivery.ItemListCap
	}
	if offset < 0 {
		offset = 0
	}
	return api.ItemsSnapshot(ctx, q, offset, limit)
}

// RemoveItems deletes the named items from one queue. Absent ids are
// skipped, so removal stays idempotent across operators.
func (d *Daemon) RemoveItems(ctx context.Context, agentName, queueName string, ids []string) (int, error) {
	ag, err := d.registry.Lookup(agentName)
	if err != nil {
		return 0, err
	}
	q, err := ag.Queue(queueName)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		ok, err := q.Remove(ctx, id)
		if err != nil {
			return removed, fmt.Errorf("remove item %s: %w", id, err)
		}
		if ok {
			removed++
			ag.Log().Record("operator removed item %s from %s", id, queueName)
		}
	}
	if removed > 0 {
		d.logger.Info("queue items removed",
			logging.String(logging.FieldAgent, agentName),
			logging.String(logging.FieldQueue, queueName),
			logging.Int("removed", removed))
	}
	return removed, nil
}

// ClearQueue removes every item from one queue and reports the count.
func (d *Daemon) ClearQueue(ctx context.Context, agentName, queueName string) (int, error) {
	ag, err := d.registry.Lookup(agentName)
	if err != nil {
		return 0, err
	}
	q, err := ag.Queue(queueName)
	if err != nil {
		return 0, err
	}
	removed, err := q.Clear(ctx)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		ag.Log().Record("operator cleared %s (%d items)", queueName, removed)
		d.logger.Info("queue cleared",
			logging.String(logging.FieldAgent, agentName),
			logging.String(logging.FieldQueue, queueName),
			logging.Int("removed", removed))
		if err := d.notifier.NotifyQueueCleared(ctx, agentName, queueName, removed); err != nil {
			d.logger.Debug("queue cleared notification failed", logging.Error(err))
		}
	}
	return removed, nil
}

// RetryItems moves parked items from the error queue back onto their routed
// queue with a reset attempt counter. Empty ids retries every parked item.
func (d *Daemon) RetryItems(ctx context.Context, agentName string, ids []string) (int, error) {
	ag, err := d.registry.Lookup(agentName)
	if err != nil {
		return 0, err
	}
	errQ, err := ag.Queue(config.ErrorQueueName)
	if err != nil {
		return 0, fmt.Errorf("agent %s keeps no parked items: %w", agentName, err)
	}

	if len(ids) == 0 {
		parked, err := errQ.Items(ctx, 0, retryBatchLimit)
		if err != nil {
			return 0, err
		}
		for _, item := range parked {
			ids = append(ids, item.ID)
		}
	}

	retried := 0
	for _, id := range ids {
		item, err := errQ.Item(ctx, id)
		if err != nil {
			return retried, err
		}
		if item == nil {
			continue
		}
		status, err := errQ.Status(ctx, id)
		if err != nil {
			if errors.Is(err, queue.ErrItemNotFound) {
				continue
			}
			return retried, err
		}

		target, err := ag.Queue(ag.RouteFor(item.Package))
		if err != nil {
			return retried, err
		}
		fresh := queue.ItemStatus{Entered: status.Entered, State: queue.ItemQueued}
		accepted, err := target.Adopt(ctx, *item, fresh)
		if err != nil {
			return retried, fmt.Errorf("requeue item %s: %w", id, err)
		}
		if !accepted {
			// Target queue is full; the item stays parked.
			continue
		}
		if _, err := errQ.Remove(ctx, id); err != nil {
			return retried, fmt.Errorf("unpark item %s: %w", id, err)
		}
		retried++
		ag.Log().Record("operator retried item %s to %s", id, target.Name())
	}
	if retried > 0 {
		d.logger.Info("parked items requeued",
			logging.String(logging.FieldAgent, agentName),
			logging.Int("items", retried))
	}
	return retried, nil
}

// Submit routes and enqueues a package on one agent. The caller validates
// the package beforehand.
func (d *Daemon) Submit(ctx context.Context, agentName string, pkg payload.Package) (api.Item, string, error) {
	ag, err := d.registry.Lookup(agentName)
	if err != nil {
		return api.Item{}, "", err
	}

	queueName := ag.RouteFor(pkg)
	item, err := ag.Enqueue(ctx, pkg)
	if err != nil {
		return api.Item{}, "", err
	}

	q, err := ag.Queue(queueName)
	if err != nil {
		return api.Item{}, "", err
	}
	status, err := q.Status(ctx, item.ID)
	if err != nil {
		if errors.Is(err, queue.ErrItemNotFound) {
			// Delivered before the status read.
			return api.FromItem(queueName, item, queue.ItemStatus{State: queue.ItemSucceeded}), queueName, nil
		}
		return api.Item{}, "", err
	}
	return api.FromItem(queueName, item, status), queueName, nil
}

// TestNotification sends a webhook test using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.WebhookURL) == "" {
		return false, "webhook not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
