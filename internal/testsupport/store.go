package testsupport

import (
	"context"
	"testing"

	"courier/internal/config"
	"courier/internal/payload"
	"courier/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewPackage builds a content package for tests.
func NewPackage(t testing.TB, paths ...string) payload.Package {
	t.Helper()

	if len(paths) == 0 {
		paths = []string{"/content/site/en"}
	}
	return payload.New(payload.DefaultType, payload.ActionAdd, paths)
}

// MustAdd enqueues a fresh item built from the package and fails the test
// when the queue rejects it.
func MustAdd(t testing.TB, q queue.Queue, pkg payload.Package) queue.Item {
	t.Helper()

	item := queue.NewItem(pkg)
	accepted, err := q.Add(context.Background(), item)
	if err != nil {
		t.Fatalf("queue.Add: %v", err)
	}
	if !accepted {
		t.Fatalf("queue rejected item %s", item.ID)
	}
	return item
}
