package agent_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"courier/internal/config"
	"courier/internal/payload"
	"courier/internal/queue"
	"courier/internal/testsupport"
	"courier/internal/transport"
)

func TestAgentDeliversInOrder(t *testing.T) {
	var mu sync.Mutex
	var delivered []string
	deliverer := deliverFunc(func(_ context.Context, _ string, pkg payload.Package) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, pkg.ID)
		return nil
	})

	ag := newTestAgent(t, testsupport.SimpleAgent("publish"), deliverer, nil)
	ctx := context.Background()

	var want []string
	for _, path := range []string{"/content/a", "/content/b", "/content/c"} {
		item, err := ag.Enqueue(ctx, testsupport.NewPackage(t, path))
		if err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		want = append(want, item.ID)
	}

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	items, err := q.Items(ctx, 0, 10)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	for i, item := range items {
		if item.ID != want[i] {
			t.Fatalf("queued order[%d] = %s, want %s", i, item.ID, want[i])
		}
	}

	startAgent(t, ag)
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		empty, emptyErr := q.IsEmpty(context.Background())
		return emptyErr == nil && empty
	}, "queue drained")

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != len(want) {
		t.Fatalf("delivered %d items, want %d", len(delivered), len(want))
	}
	for i := range want {
		if delivered[i] != want[i] {
			t.Fatalf("delivery order[%d] = %s, want %s", i, delivered[i], want[i])
		}
	}
}

func TestAgentRetriesUntilDelivered(t *testing.T) {
	var calls atomic.Int32
	deliverer := deliverFunc(func(_ context.Context, endpoint string, _ payload.Package) error {
		if calls.Add(1) < 3 {
			return &transport.Error{Endpoint: endpoint, Status: 503, Reason: "replica busy"}
		}
		return nil
	})
	notifier := &recordingNotifier{}

	cfg := testsupport.SimpleAgent("publish")
	cfg.MaxAttempts = 5
	ag := newTestAgent(t, cfg, deliverer, notifier)

	if _, err := ag.Enqueue(context.Background(), testsupport.NewPackage(t)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	startAgent(t, ag)

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		empty, emptyErr := q.IsEmpty(context.Background())
		return emptyErr == nil && empty
	}, "item delivered after retries")

	if got := calls.Load(); got != 3 {
		t.Fatalf("delivery attempts = %d, want 3", got)
	}
	// Only the first failure flips the queue to blocked.
	if blocked := notifier.blockedQueues(); len(blocked) != 1 || blocked[0] != config.DefaultQueueName {
		t.Fatalf("blocked notifications = %v, want one for the default queue", blocked)
	}
}

func TestAgentGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	deliverer := deliverFunc(func(_ context.Context, endpoint string, _ payload.Package) error {
		calls.Add(1)
		return &transport.Error{Endpoint: endpoint, Status: 502, Reason: "replica store offline"}
	})
	notifier := &recordingNotifier{}

	cfg := testsupport.SimpleAgent("publish") // max_attempts=2, error-queue policy
	ag := newTestAgent(t, cfg, deliverer, notifier)
	ctx := context.Background()

	item, err := ag.Enqueue(ctx, testsupport.NewPackage(t))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	startAgent(t, ag)

	errQ, err := ag.Queue(config.ErrorQueueName)
	if err != nil {
		t.Fatalf("Queue(error): %v", err)
	}
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		count, countErr := errQ.ItemsCount(context.Background())
		return countErr == nil && count == 1
	}, "item parked on error queue")

	// Give the worker time to misbehave; a third attempt must never happen.
	time.Sleep(25 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Fatalf("delivery attempts = %d, want exactly 2", got)
	}

	status, err := errQ.Status(ctx, item.ID)
	if err != nil {
		t.Fatalf("Status on error queue: %v", err)
	}
	if status.State != queue.ItemGivenUp {
		t.Fatalf("state = %q, want given_up", status.State)
	}
	if status.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", status.Attempts)
	}
	if !strings.Contains(status.LastError, "status 502") {
		t.Fatalf("last error = %q, want delivery reason", status.LastError)
	}

	mainQ, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue(default): %v", err)
	}
	if empty, _ := mainQ.IsEmpty(ctx); !empty {
		t.Fatal("default queue should be empty after give-up")
	}
	if given := notifier.givenUpItems(); len(given) != 1 || given[0] != item.ID {
		t.Fatalf("give-up notifications = %v, want [%s]", given, item.ID)
	}
}

func TestAgentDropPolicyDiscardsGivenUpItems(t *testing.T) {
	var calls atomic.Int32
	deliverer := deliverFunc(func(_ context.Context, endpoint string, _ payload.Package) error {
		calls.Add(1)
		return &transport.Error{Endpoint: endpoint, Reason: "connection refused"}
	})
	notifier := &recordingNotifier{}

	cfg := testsupport.SimpleAgent("publish")
	cfg.OnGiveUp = config.GiveUpDrop
	cfg.MaxAttempts = 1
	ag := newTestAgent(t, cfg, deliverer, notifier)
	ctx := context.Background()

	item, err := ag.Enqueue(ctx, testsupport.NewPackage(t))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	startAgent(t, ag)

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		empty, emptyErr := q.IsEmpty(context.Background())
		return emptyErr == nil && empty
	}, "item dropped")

	if got := calls.Load(); got != 1 {
		t.Fatalf("delivery attempts = %d, want 1", got)
	}
	if _, err := q.Status(ctx, item.ID); !errors.Is(err, queue.ErrItemNotFound) {
		t.Fatalf("Status after drop err = %v, want ErrItemNotFound", err)
	}
	if given := notifier.givenUpItems(); len(given) != 1 {
		t.Fatalf("give-up notifications = %v, want one", given)
	}
}

func TestAgentPauseBlocksNewActivations(t *testing.T) {
	var calls atomic.Int32
	deliverer := deliverFunc(func(context.Context, string, payload.Package) error {
		calls.Add(1)
		return nil
	})

	ag := newTestAgent(t, testsupport.SimpleAgent("publish"), deliverer, nil)
	ctx := context.Background()

	ag.Pause()
	// Producers keep working while paused; items wait for Resume.
	if _, err := ag.Enqueue(ctx, testsupport.NewPackage(t)); err != nil {
		t.Fatalf("Enqueue while paused: %v", err)
	}
	startAgent(t, ag)

	time.Sleep(25 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("deliveries while paused = %d, want 0", got)
	}

	state, err := ag.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state != "paused" {
		t.Fatalf("state = %q, want paused", state)
	}

	ag.Resume()
	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		empty, emptyErr := q.IsEmpty(context.Background())
		return emptyErr == nil && empty
	}, "item delivered after resume")
	if got := calls.Load(); got != 1 {
		t.Fatalf("deliveries after resume = %d, want 1", got)
	}
}

func TestAgentPauseAllowsInFlightCompletion(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	deliverer := deliverFunc(func(context.Context, string, payload.Package) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})

	ag := newTestAgent(t, testsupport.SimpleAgent("publish"), deliverer, nil)
	ctx := context.Background()

	if _, err := ag.Enqueue(ctx, testsupport.NewPackage(t)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	startAgent(t, ag)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never started")
	}

	ag.Pause()
	close(release)

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		empty, emptyErr := q.IsEmpty(context.Background())
		return emptyErr == nil && empty
	}, "in-flight delivery completed during pause")
}

func TestAgentResolvesInterruptedDelivery(t *testing.T) {
	var calls atomic.Int32
	deliverer := deliverFunc(func(context.Context, string, payload.Package) error {
		calls.Add(1)
		return nil
	})

	cfg := testsupport.SimpleAgent("publish")
	cfg.MaxAttempts = 3
	ag := newTestAgent(t, cfg, deliverer, nil)
	ctx := context.Background()

	item, err := ag.Enqueue(ctx, testsupport.NewPackage(t))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	// Simulate a delivery whose outcome was lost.
	if _, err := q.Begin(ctx, item.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	startAgent(t, ag)
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		empty, emptyErr := q.IsEmpty(context.Background())
		return emptyErr == nil && empty
	}, "interrupted item recovered and delivered")

	if got := calls.Load(); got != 1 {
		t.Fatalf("delivery attempts = %d, want 1", got)
	}
}

func TestAgentFinishesInterruptedGiveUp(t *testing.T) {
	var calls atomic.Int32
	deliverer := deliverFunc(func(context.Context, string, payload.Package) error {
		calls.Add(1)
		return nil
	})

	ag := newTestAgent(t, testsupport.SimpleAgent("publish"), deliverer, nil)
	ctx := context.Background()

	item, err := ag.Enqueue(ctx, testsupport.NewPackage(t))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if _, err := q.Begin(ctx, item.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := q.MarkError(ctx, item.ID, "replica gone"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	// Give-up recorded but the relocation never ran.
	if _, err := q.GiveUp(ctx, item.ID); err != nil {
		t.Fatalf("GiveUp: %v", err)
	}

	startAgent(t, ag)

	errQ, err := ag.Queue(config.ErrorQueueName)
	if err != nil {
		t.Fatalf("Queue(error): %v", err)
	}
	testsupport.WaitFor(t, 2*time.Second, func() bool {
		count, countErr := errQ.ItemsCount(context.Background())
		return countErr == nil && count == 1
	}, "given-up item relocated after restart")

	if empty, _ := q.IsEmpty(ctx); !empty {
		t.Fatal("default queue should be empty")
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("deliveries = %d, want 0 for a given-up item", got)
	}

	status, err := errQ.Status(ctx, item.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.State != queue.ItemGivenUp || status.Attempts != 1 || status.LastError != "replica gone" {
		t.Fatalf("relocated status = %+v, want given_up/1/replica gone", status)
	}
}
