package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"courier/internal/config"
	"courier/internal/logging"
	"courier/internal/notifications"
	"courier/internal/payload"
	"courier/internal/queue"
	"courier/internal/transport"
)

// State describes the aggregate condition of an agent.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateBlocked State = "blocked"
)

// Policy holds the per-agent give-up rules.
type Policy struct {
	MaxAttempts int
	OnGiveUp    string
}

// Settings holds delivery-loop timing.
type Settings struct {
	PollInterval time.Duration
	RetryDelay   time.Duration
}

// SettingsFromConfig converts the delivery section into loop timing.
func SettingsFromConfig(d config.Delivery) Settings {
	return Settings{
		PollInterval: time.Duration(d.PollInterval) * time.Second,
		RetryDelay:   time.Duration(d.RetryDelay) * time.Second,
	}
}

// Dependencies carries the collaborators an agent needs. Deliverer, Notifier,
// and Logger default to safe implementations when nil; Store is required for
// sqlite-backed agents.
type Dependencies struct {
	Store     *queue.Store
	Deliverer transport.Deliverer
	Notifier  notifications.Service
	Logger    *slog.Logger
}

// Option configures optional Agent behavior.
type Option func(*agentOptions)

type agentOptions struct {
	settings *Settings
	logDepth int
}

// WithSettings overrides the delivery-loop timing derived from config.
func WithSettings(s Settings) Option {
	return func(o *agentOptions) { o.settings = &s }
}

// WithLogDepth bounds the activity log to the given number of lines.
func WithLogDepth(depth int) Option {
	return func(o *agentOptions) { o.logDepth = depth }
}

// Agent owns a fixed set of named queues and delivers their items to one
// replica endpoint. Queue names are fixed at construction; the first
// configured queue is the default route.
type Agent struct {
	name     string
	endpoint string

	queues  map[string]queue.Queue
	order   []string // configured order, error queue last
	workers []string // order minus the error queue

	router    *Router
	deliverer transport.Deliverer
	notifier  notifications.Service
	logger    *slog.Logger
	activity  *Log

	policy   Policy
	settings Settings
	paused   atomic.Bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs an agent from its config section. The delivery section
// supplies loop timing and the default transport timeout.
func New(agentCfg config.Agent, delivery config.Delivery, deps Dependencies, opts ...Option) (*Agent, error) {
	if agentCfg.Name == "" {
		return nil, errors.New("agent name is required")
	}

	options := &agentOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	deliverer := deps.Deliverer
	if deliverer == nil {
		deliverer = transport.NewHTTP(time.Duration(delivery.RequestTimeout) * time.Second)
	}

	settings := SettingsFromConfig(delivery)
	if options.settings != nil {
		settings = *options.settings
	}
	if settings.PollInterval <= 0 {
		settings.PollInterval = 2 * time.Second
	}
	if settings.RetryDelay < 0 {
		settings.RetryDelay = 0
	}

	maxAttempts := agentCfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	queueNames := agentCfg.Queues
	if len(queueNames) == 0 {
		queueNames = []string{config.DefaultQueueName}
	}

	a := &Agent{
		name:      agentCfg.Name,
		endpoint:  agentCfg.Endpoint,
		queues:    make(map[string]queue.Queue, len(queueNames)+1),
		router:    NewRouter(queueNames[0], agentCfg.Routing),
		deliverer: deliverer,
		notifier:  deps.Notifier,
		logger:    logger.With(logging.String(logging.FieldAgent, agentCfg.Name)),
		activity:  NewLog(options.logDepth),
		policy:    Policy{MaxAttempts: maxAttempts, OnGiveUp: agentCfg.OnGiveUp},
		settings:  settings,
	}

	for _, queueName := range queueNames {
		q, err := buildQueue(agentCfg, queueName, agentCfg.Capacity, deps.Store)
		if err != nil {
			return nil, err
		}
		a.queues[queueName] = q
		a.order = append(a.order, queueName)
		a.workers = append(a.workers, queueName)
	}
	if agentCfg.OnGiveUp == config.GiveUpErrorQueue {
		// The error queue parks given-up items; it is unbounded and never drained.
		q, err := buildQueue(agentCfg, config.ErrorQueueName, 0, deps.Store)
		if err != nil {
			return nil, err
		}
		a.queues[config.ErrorQueueName] = q
		a.order = append(a.order, config.ErrorQueueName)
	}

	if agentCfg.Paused {
		a.paused.Store(true)
		for _, q := range a.queues {
			q.SetPaused(true)
		}
	}

	return a, nil
}

func buildQueue(agentCfg config.Agent, queueName string, capacity int, store *queue.Store) (queue.Queue, error) {
	switch agentCfg.Backend {
	case config.BackendMemory:
		return queue.NewMemory(queueName, capacity), nil
	case config.BackendSQLite, "":
		if store == nil {
			return nil, fmt.Errorf("agent %s: sqlite backend requires an open store", agentCfg.Name)
		}
		return store.Queue(agentCfg.Name, queueName, capacity), nil
	default:
		return nil, fmt.Errorf("agent %s: unknown queue backend %q", agentCfg.Name, agentCfg.Backend)
	}
}

// Name returns the agent name, unique within the registry.
func (a *Agent) Name() string { return a.name }

// Endpoint returns the replica endpoint this agent delivers to.
func (a *Agent) Endpoint() string { return a.endpoint }

// QueueNames returns the queue names in configured order, the error queue
// last. The order is fixed for the process lifetime.
func (a *Agent) QueueNames() []string {
	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

// Queue returns the named queue or ErrQueueNotFound.
func (a *Agent) Queue(name string) (queue.Queue, error) {
	q, ok := a.queues[name]
	if !ok {
		return nil, fmt.Errorf("queue %q: %w", name, ErrQueueNotFound)
	}
	return q, nil
}

// Log returns the agent activity log.
func (a *Agent) Log() *Log { return a.activity }

// IsPaused reports whether the agent is paused.
func (a *Agent) IsPaused() bool { return a.paused.Load() }

// Pause stops new delivery activations. Items keep accumulating and
// in-flight deliveries run to completion with their terminal transition
// still applied.
func (a *Agent) Pause() {
	if a.paused.Swap(true) {
		return
	}
	for _, q := range a.queues {
		q.SetPaused(true)
	}
	a.activity.Record("agent paused")
	a.logger.Info("agent paused")
}

// Resume reverses Pause.
func (a *Agent) Resume() {
	if !a.paused.Swap(false) {
		return
	}
	for _, q := range a.queues {
		q.SetPaused(false)
	}
	a.activity.Record("agent resumed")
	a.logger.Info("agent resumed")
}

// State derives the agent state from its worker queues: paused wins, a
// blocked queue propagates, items anywhere mean running, otherwise idle.
// The error queue is a parking lot and never drives the agent state.
func (a *Agent) State(ctx context.Context) (State, error) {
	if a.paused.Load() {
		return StatePaused, nil
	}
	busy := false
	for _, name := range a.workers {
		q := a.queues[name]
		st, err := q.State(ctx)
		if err != nil {
			return StateIdle, fmt.Errorf("state of queue %s: %w", name, err)
		}
		if st == queue.StateBlocked {
			return StateBlocked, nil
		}
		empty, err := q.IsEmpty(ctx)
		if err != nil {
			return StateIdle, fmt.Errorf("inspect queue %s: %w", name, err)
		}
		if !empty {
			busy = true
		}
	}
	if busy {
		return StateRunning, nil
	}
	return StateIdle, nil
}

// Enqueue validates and routes a package onto exactly one queue. A full
// queue surfaces as queue.ErrQueueFull so producers can apply backpressure.
// Enqueueing while paused is allowed; items wait until the agent resumes.
func (a *Agent) Enqueue(ctx context.Context, pkg payload.Package) (queue.Item, error) {
	if err := pkg.Validate(); err != nil {
		return queue.Item{}, fmt.Errorf("invalid package: %w", err)
	}

	queueName := a.router.Route(pkg)
	q, ok := a.queues[queueName]
	if !ok {
		return queue.Item{}, fmt.Errorf("queue %q: %w", queueName, ErrQueueNotFound)
	}

	item := queue.NewItem(pkg)
	accepted, err := q.Add(ctx, item)
	if err != nil {
		return queue.Item{}, fmt.Errorf("enqueue to %s: %w", queueName, err)
	}
	if !accepted {
		return queue.Item{}, fmt.Errorf("queue %q: %w", queueName, queue.ErrQueueFull)
	}

	a.activity.Record("queued item %s to %s (%s)", item.ID, queueName, pkg.Action)
	a.logger.Info("item queued",
		logging.String(logging.FieldQueue, queueName),
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldAction, string(pkg.Action)),
		logging.Int("paths", len(pkg.Paths)),
	)
	return item, nil
}

// RouteFor reports which queue Enqueue would place the package on. Routing
// is a pure function of the package paths, so the answer is stable.
func (a *Agent) RouteFor(pkg payload.Package) string {
	return a.router.Route(pkg)
}
