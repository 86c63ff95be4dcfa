package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"courier/internal/agent"
	"courier/internal/config"
	"courier/internal/daemon"
	"courier/internal/ipc"
	"courier/internal/logging"
	"courier/internal/payload"
	"courier/internal/queue"
	"courier/internal/testsupport"
)

// startServer wires a daemon behind a real unix socket. The daemon is not
// started, so submitted items stay queued instead of racing the workers.
func startServer(t *testing.T) (*ipc.Client, *daemon.Daemon) {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithAgent(testsupport.SimpleAgent("publish")))
	store := testsupport.MustOpenStore(t, cfg)
	ag, err := agent.New(cfg.Agents[0], cfg.Delivery, agent.Dependencies{Store: store, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	registry, err := agent.NewRegistry(ag)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	d, err := daemon.New(cfg, store, registry, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, d
}

func TestIPCServerClient(t *testing.T) {
	client, _ := startServer(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to report stopped")
	}
	if status.QueueDBPath == "" || status.SocketPath == "" {
		t.Fatalf("missing paths in status: %+v", status)
	}
	if len(status.Agents) != 1 || status.Agents[0].Name != "publish" {
		t.Fatalf("unexpected agents: %+v", status.Agents)
	}

	first, err := client.Submit(ipc.SubmitRequest{Agent: "publish", Action: "add", Paths: []string{"/content/site/en"}})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if first.Queue != config.DefaultQueueName {
		t.Fatalf("queue = %q", first.Queue)
	}
	if first.Item.State != "queued" {
		t.Fatalf("item state = %q", first.Item.State)
	}
	second, err := client.Submit(ipc.SubmitRequest{Agent: "publish", Action: "delete", Paths: []string{"/content/site/de"}})
	if err != nil {
		t.Fatalf("Submit second failed: %v", err)
	}

	if _, err := client.Submit(ipc.SubmitRequest{Agent: "publish", Action: "replicate", Paths: []string{"/a"}}); err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Fatalf("expected unknown action error, got %v", err)
	}

	list, err := client.QueueList(ipc.QueueListRequest{Agent: "publish", Queue: config.DefaultQueueName})
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(list.Items) != 2 || list.Items[0].ID != first.Item.ID || list.Items[1].ID != second.Item.ID {
		t.Fatalf("unexpected listing: %+v", list.Items)
	}

	page, err := client.QueueList(ipc.QueueListRequest{Agent: "publish", Queue: config.DefaultQueueName, Offset: 1, Limit: 1})
	if err != nil {
		t.Fatalf("QueueList page failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != second.Item.ID {
		t.Fatalf("unexpected page: %+v", page.Items)
	}

	paused, err := client.PauseAgent("publish")
	if err != nil {
		t.Fatalf("PauseAgent failed: %v", err)
	}
	if !paused.Agent.Paused || paused.Agent.State != "paused" {
		t.Fatalf("pause summary = %+v", paused.Agent)
	}
	resumed, err := client.ResumeAgent("publish")
	if err != nil {
		t.Fatalf("ResumeAgent failed: %v", err)
	}
	if resumed.Agent.Paused {
		t.Fatalf("resume summary = %+v", resumed.Agent)
	}

	removed, err := client.QueueRemove(ipc.QueueRemoveRequest{Agent: "publish", Queue: config.DefaultQueueName, IDs: []string{first.Item.ID}})
	if err != nil {
		t.Fatalf("QueueRemove failed: %v", err)
	}
	if removed.Removed != 1 {
		t.Fatalf("removed = %d, want 1", removed.Removed)
	}
	removed, err = client.QueueRemove(ipc.QueueRemoveRequest{Agent: "publish", Queue: config.DefaultQueueName, IDs: []string{first.Item.ID}})
	if err != nil {
		t.Fatalf("QueueRemove repeat failed: %v", err)
	}
	if removed.Removed != 0 {
		t.Fatalf("repeat removed = %d, want 0", removed.Removed)
	}
	if _, err := client.QueueRemove(ipc.QueueRemoveRequest{Agent: "publish", Queue: config.DefaultQueueName}); err == nil || !strings.Contains(err.Error(), "at least one id") {
		t.Fatalf("expected id requirement error, got %v", err)
	}

	cleared, err := client.QueueClear(ipc.QueueClearRequest{Agent: "publish", Queue: config.DefaultQueueName})
	if err != nil {
		t.Fatalf("QueueClear failed: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("cleared = %d, want 1", cleared.Removed)
	}

	activity, err := client.AgentLog(ipc.AgentLogRequest{Agent: "publish"})
	if err != nil {
		t.Fatalf("AgentLog failed: %v", err)
	}
	if len(activity.Lines) < 4 {
		t.Fatalf("activity lines = %d, want at least 4", len(activity.Lines))
	}
	if last := activity.Lines[len(activity.Lines)-1]; !strings.Contains(last, "cleared") {
		t.Fatalf("last activity line = %q", last)
	}
	tail, err := client.AgentLog(ipc.AgentLogRequest{Agent: "publish", Limit: 2})
	if err != nil {
		t.Fatalf("AgentLog with limit failed: %v", err)
	}
	if len(tail.Lines) != 2 {
		t.Fatalf("tail lines = %d, want 2", len(tail.Lines))
	}

	notif, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notif.Sent || notif.Message != "webhook not configured" {
		t.Fatalf("notification = %+v", notif)
	}

	if _, err := client.PauseAgent("ghost"); err == nil {
		t.Fatal("expected unknown agent error")
	}
}

func TestIPCQueueRetry(t *testing.T) {
	client, d := startServer(t)
	ctx := context.Background()

	errQ, err := d.Queue("publish", config.ErrorQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	item := queue.NewItem(payload.New("", payload.ActionAdd, []string{"/content/site/en"}))
	parked := queue.ItemStatus{
		Attempts:  3,
		Entered:   time.Now().UTC().Add(-time.Hour),
		State:     queue.ItemGivenUp,
		LastError: "replica gone",
	}
	if ok, err := errQ.Adopt(ctx, item, parked); err != nil || !ok {
		t.Fatalf("Adopt: ok=%v err=%v", ok, err)
	}

	retried, err := client.QueueRetry(ipc.QueueRetryRequest{Agent: "publish"})
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retried.Retried != 1 {
		t.Fatalf("retried = %d, want 1", retried.Retried)
	}

	list, err := client.QueueList(ipc.QueueListRequest{Agent: "publish", Queue: config.DefaultQueueName})
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != item.ID {
		t.Fatalf("unexpected listing: %+v", list.Items)
	}
	if list.Items[0].State != "queued" || list.Items[0].Attempts != 0 {
		t.Fatalf("requeued item = %+v", list.Items[0])
	}
}

func TestDialMissingSocket(t *testing.T) {
	if _, err := ipc.Dial(filepath.Join(t.TempDir(), "missing.sock")); err == nil {
		t.Fatal("expected dial error for missing socket")
	}
}
