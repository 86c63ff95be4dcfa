package agent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"courier/internal/agent"
	"courier/internal/testsupport"
)

func TestRegistryNamesAndLookup(t *testing.T) {
	publish := newTestAgent(t, testsupport.SimpleAgent("publish"), succeedingDeliverer(), nil)
	mirror := newTestAgent(t, testsupport.SimpleAgent("mirror"), succeedingDeliverer(), nil)

	registry, err := agent.NewRegistry(publish, mirror)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "mirror" || names[1] != "publish" {
		t.Fatalf("Names = %v, want sorted [mirror publish]", names)
	}

	got, err := registry.Lookup("publish")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Name() != "publish" {
		t.Fatalf("Lookup returned %q", got.Name())
	}

	if _, err := registry.Lookup("ghost"); !errors.Is(err, agent.ErrAgentUnknown) {
		t.Fatalf("Lookup(ghost) err = %v, want ErrAgentUnknown", err)
	}

	all := registry.All()
	if len(all) != 2 || all[0].Name() != "mirror" {
		t.Fatalf("All order = %v, want mirror first", []string{all[0].Name(), all[1].Name()})
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	a := newTestAgent(t, testsupport.SimpleAgent("publish"), succeedingDeliverer(), nil)
	b := newTestAgent(t, testsupport.SimpleAgent("publish"), succeedingDeliverer(), nil)

	if _, err := agent.NewRegistry(a, b); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestRegistryStartStopAll(t *testing.T) {
	publish := newTestAgent(t, testsupport.SimpleAgent("publish"), succeedingDeliverer(), nil)
	mirror := newTestAgent(t, testsupport.SimpleAgent("mirror"), succeedingDeliverer(), nil)

	registry, err := agent.NewRegistry(publish, mirror)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	ctx := context.Background()
	if err := registry.StartAll(ctx); err != nil {
		t.Fatalf("StartAll: %v", err)
	}
	defer registry.StopAll()

	// Agents are running; a second start must fail and not wedge anything.
	if err := registry.StartAll(ctx); err == nil {
		t.Fatal("expected error starting agents twice")
	}

	for _, ag := range registry.All() {
		if _, err := ag.Enqueue(ctx, testsupport.NewPackage(t)); err != nil {
			t.Fatalf("Enqueue on %s: %v", ag.Name(), err)
		}
	}
	for _, ag := range registry.All() {
		q, err := ag.Queue("default")
		if err != nil {
			t.Fatalf("Queue: %v", err)
		}
		testsupport.WaitFor(t, 2*time.Second, func() bool {
			empty, emptyErr := q.IsEmpty(context.Background())
			return emptyErr == nil && empty
		}, "registry agents drain their queues")
	}

	registry.StopAll()
	// StopAll is idempotent.
	registry.StopAll()
}
