package projection_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"courier/internal/agent"
	"courier/internal/config"
	"courier/internal/logging"
	"courier/internal/payload"
	"courier/internal/projection"
	"courier/internal/queue"
	"courier/internal/testsupport"
)

type nopDeliverer struct{}

func (nopDeliverer) Deliver(context.Context, string, payload.Package) error { return nil }

func newFixture(t *testing.T, itemCap int) (*projection.Provider, *agent.Agent) {
	t.Helper()

	ag, err := agent.New(testsupport.SimpleAgent("publish"), config.Default().Delivery, agent.Dependencies{
		Deliverer: nopDeliverer{},
		Logger:    logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("agent.New: %v", err)
	}
	registry, err := agent.NewRegistry(ag)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return projection.NewProvider(registry, itemCap), ag
}

func TestProjectRootListsVirtualChildren(t *testing.T) {
	provider, _ := newFixture(t, 100)

	node, ok := provider.Project(context.Background(), "publish", "")
	if !ok {
		t.Fatal("expected agent root node")
	}
	if node.ResourceType != projection.TypeAgent {
		t.Fatalf("resource type = %q", node.ResourceType)
	}
	want := []string{"queues", "log", "status"}
	if len(node.Children) != len(want) {
		t.Fatalf("children = %v, want %v", node.Children, want)
	}
	for i := range want {
		if node.Children[i] != want[i] {
			t.Fatalf("children = %v, want %v", node.Children, want)
		}
	}

	if _, ok := provider.Project(context.Background(), "ghost", ""); ok {
		t.Fatal("unknown agent should be absent")
	}
}

func TestProjectQueueList(t *testing.T) {
	provider, _ := newFixture(t, 100)

	node, ok := provider.Project(context.Background(), "publish", "queues")
	if !ok {
		t.Fatal("expected queue list node")
	}
	if node.ResourceType != projection.TypeQueueList {
		t.Fatalf("resource type = %q", node.ResourceType)
	}
	names, _ := node.Properties["items"].([]string)
	if len(names) != 2 || names[0] != config.DefaultQueueName || names[1] != config.ErrorQueueName {
		t.Fatalf("queue names = %v, want [default error]", names)
	}
}

func TestProjectQueueNode(t *testing.T) {
	provider, ag := newFixture(t, 100)
	ctx := context.Background()

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	first := testsupport.MustAdd(t, q, testsupport.NewPackage(t, "/content/a"))
	second := testsupport.MustAdd(t, q, testsupport.NewPackage(t, "/content/b"))

	node, ok := provider.Project(ctx, "publish", "queues/default")
	if !ok {
		t.Fatal("expected queue node")
	}
	if node.ResourceType != projection.TypeQueue {
		t.Fatalf("resource type = %q", node.ResourceType)
	}
	if node.Properties["state"] != string(queue.StateRunning) {
		t.Fatalf("state = %v, want running", node.Properties["state"])
	}
	if node.Properties["empty"] != false {
		t.Fatalf("empty = %v, want false", node.Properties["empty"])
	}
	if node.Properties["itemsCount"] != 2 {
		t.Fatalf("itemsCount = %v, want 2", node.Properties["itemsCount"])
	}
	ids, _ := node.Properties["items"].([]string)
	if len(ids) != 2 || ids[0] != first.ID || ids[1] != second.ID {
		t.Fatalf("items = %v, want [%s %s]", ids, first.ID, second.ID)
	}
}

func TestProjectQueueNodeHonorsItemCap(t *testing.T) {
	provider, ag := newFixture(t, 1)
	ctx := context.Background()

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	testsupport.MustAdd(t, q, testsupport.NewPackage(t, "/content/a"))
	testsupport.MustAdd(t, q, testsupport.NewPackage(t, "/content/b"))

	node, ok := provider.Project(ctx, "publish", "queues/default")
	if !ok {
		t.Fatal("expected queue node")
	}
	ids, _ := node.Properties["items"].([]string)
	if len(ids) != 1 {
		t.Fatalf("listed %d ids, want cap of 1", len(ids))
	}
	// The count still reflects the full queue.
	if node.Properties["itemsCount"] != 2 {
		t.Fatalf("itemsCount = %v, want 2", node.Properties["itemsCount"])
	}
}

func TestProjectItemNode(t *testing.T) {
	provider, ag := newFixture(t, 100)
	ctx := context.Background()

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	item := testsupport.MustAdd(t, q, testsupport.NewPackage(t, "/content/site/en"))

	node, ok := provider.Project(ctx, "publish", "queues/default/"+item.ID)
	if !ok {
		t.Fatal("expected item node")
	}
	if node.ResourceType != projection.TypeQueueItem {
		t.Fatalf("resource type = %q", node.ResourceType)
	}
	if node.Properties["id"] != item.ID {
		t.Fatalf("id = %v, want %s", node.Properties["id"], item.ID)
	}
	paths, _ := node.Properties["paths"].([]string)
	if len(paths) != 1 || paths[0] != "/content/site/en" {
		t.Fatalf("paths = %v", paths)
	}
	if node.Properties["action"] != string(payload.ActionAdd) {
		t.Fatalf("action = %v, want add", node.Properties["action"])
	}
	if node.Properties["type"] != payload.DefaultType {
		t.Fatalf("type = %v, want %s", node.Properties["type"], payload.DefaultType)
	}
	if node.Properties["attempts"] != 0 {
		t.Fatalf("attempts = %v, want 0", node.Properties["attempts"])
	}
	if node.Properties["state"] != string(queue.ItemQueued) {
		t.Fatalf("state = %v, want queued", node.Properties["state"])
	}
	entered, _ := node.Properties["time"].(string)
	if _, err := time.Parse(time.RFC3339Nano, entered); err != nil {
		t.Fatalf("time %q not parseable: %v", entered, err)
	}
	if _, present := node.Properties["lastError"]; present {
		t.Fatal("lastError should be absent before any failure")
	}

	if _, err := q.Begin(ctx, item.ID); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := q.MarkError(ctx, item.ID, "replica unreachable"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}

	node, ok = provider.Project(ctx, "publish", "queues/default/"+item.ID)
	if !ok {
		t.Fatal("expected item node after failure")
	}
	if node.Properties["attempts"] != 1 {
		t.Fatalf("attempts = %v, want 1", node.Properties["attempts"])
	}
	if node.Properties["state"] != string(queue.ItemError) {
		t.Fatalf("state = %v, want error", node.Properties["state"])
	}
	if node.Properties["lastError"] != "replica unreachable" {
		t.Fatalf("lastError = %v", node.Properties["lastError"])
	}
}

func TestProjectRemovedItemAbsent(t *testing.T) {
	provider, ag := newFixture(t, 100)
	ctx := context.Background()

	q, err := ag.Queue(config.DefaultQueueName)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	item := testsupport.MustAdd(t, q, testsupport.NewPackage(t))
	if _, err := q.Remove(ctx, item.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, ok := provider.Project(ctx, "publish", "queues/default/"+item.ID); ok {
		t.Fatal("removed item should project as absent")
	}
}

func TestProjectUnknownPathsAbsent(t *testing.T) {
	provider, _ := newFixture(t, 100)
	ctx := context.Background()

	for _, path := range []string{
		"bogus",
		"queues/nope",
		"queues/default/ghost",
		"queues/default/ghost/deeper",
		"log/extra",
		"status/extra",
	} {
		if _, ok := provider.Project(ctx, "publish", path); ok {
			t.Fatalf("path %q should be absent", path)
		}
	}
}

func TestProjectStatusAndLog(t *testing.T) {
	provider, ag := newFixture(t, 100)
	ctx := context.Background()

	node, ok := provider.Project(ctx, "publish", "status")
	if !ok {
		t.Fatal("expected status node")
	}
	if node.Properties["state"] != string(agent.StateIdle) {
		t.Fatalf("state = %v, want idle", node.Properties["state"])
	}

	item, err := ag.Enqueue(ctx, testsupport.NewPackage(t))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	node, ok = provider.Project(ctx, "publish", "status")
	if !ok {
		t.Fatal("expected status node")
	}
	if node.Properties["state"] != string(agent.StateRunning) {
		t.Fatalf("state = %v, want running", node.Properties["state"])
	}

	node, ok = provider.Project(ctx, "publish", "log")
	if !ok {
		t.Fatal("expected log node")
	}
	lines, _ := node.Properties["items"].([]string)
	if len(lines) == 0 {
		t.Fatal("expected activity lines after enqueue")
	}
	found := false
	for _, line := range lines {
		if strings.Contains(line, item.ID) {
			found = true
		}
	}
	if !found {
		t.Fatalf("activity log %v does not mention item %s", lines, item.ID)
	}
}
