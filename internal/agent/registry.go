package agent

import (
	"context"
	"fmt"
	"sort"
)

// Registry holds the process-wide agent set, built once at daemon start.
type Registry struct {
	agents map[string]*Agent
	names  []string
}

// NewRegistry indexes the given agents by name.
func NewRegistry(agents ...*Agent) (*Registry, error) {
	r := &Registry{agents: make(map[string]*Agent, len(agents))}
	for _, ag := range agents {
		if ag == nil {
			continue
		}
		if _, dup := r.agents[ag.Name()]; dup {
			return nil, fmt.Errorf("duplicate agent %q", ag.Name())
		}
		r.agents[ag.Name()] = ag
		r.names = append(r.names, ag.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

// Names returns the agent names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Lookup returns the named agent or ErrAgentUnknown.
func (r *Registry) Lookup(name string) (*Agent, error) {
	ag, ok := r.agents[name]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", name, ErrAgentUnknown)
	}
	return ag, nil
}

// All returns the agents in Names order.
func (r *Registry) All() []*Agent {
	agents := make([]*Agent, 0, len(r.names))
	for _, name := range r.names {
		agents = append(agents, r.agents[name])
	}
	return agents
}

// StartAll starts every agent, stopping the already-started ones when one
// fails so the daemon never half-runs.
func (r *Registry) StartAll(ctx context.Context) error {
	started := make([]*Agent, 0, len(r.names))
	for _, ag := range r.All() {
		if err := ag.Start(ctx); err != nil {
			for _, s := range started {
				s.Stop()
			}
			return fmt.Errorf("start agent %s: %w", ag.Name(), err)
		}
		started = append(started, ag)
	}
	return nil
}

// StopAll stops every agent and waits for their workers.
func (r *Registry) StopAll() {
	for _, ag := range r.All() {
		ag.Stop()
	}
}
