package projection

import (
	"context"
	"strings"
	"time"

	"courier/internal/agent"
	"courier/internal/queue"
)

// Resource types tag projected nodes so consumers can render them without
// guessing from the path shape.
const (
	TypeAgentList = "courier/agent/list"
	TypeAgent     = "courier/agent"
	TypeQueueList = "courier/agent/queue/list"
	TypeQueue     = "courier/agent/queue"
	TypeQueueItem = "courier/agent/queue/item"
	TypeLog       = "courier/agent/log"
	TypeStatus    = "courier/agent/status"
)

const (
	queuesPath = "queues"
	logPath    = "log"
	statusPath = "status"
)

// Node is one materialized level of the introspection tree.
type Node struct {
	ResourceType string         `json:"resourceType"`
	Properties   map[string]any `json:"properties,omitempty"`
	Children     []string       `json:"children,omitempty"`
}

// Provider projects live registry state into nodes. It holds no state of
// its own beyond the item listing cap.
type Provider struct {
	registry *agent.Registry
	itemCap  int
}

// NewProvider builds a provider. itemCap bounds how many item ids a single
// queue node lists; values below one fall back to 100.
func NewProvider(registry *agent.Registry, itemCap int) *Provider {
	if itemCap < 1 {
		itemCap = 100
	}
	return &Provider{registry: registry, itemCap: itemCap}
}

// Agents returns the agent-list node.
func (p *Provider) Agents() *Node {
	return &Node{
		ResourceType: TypeAgentList,
		Children:     p.registry.Names(),
	}
}

// Project materializes the node at childPath below the named agent. The
// second return is false when nothing exists there; concurrent removal by
// the delivery worker surfaces as absent, never as an error.
func (p *Provider) Project(ctx context.Context, agentName, childPath string) (*Node, bool) {
	ag, err := p.registry.Lookup(agentName)
	if err != nil {
		return nil, false
	}

	childPath = strings.Trim(childPath, "/")
	if childPath == "" {
		return &Node{
			ResourceType: TypeAgent,
			Properties:   map[string]any{"name": ag.Name()},
			Children:     []string{queuesPath, logPath, statusPath},
		}, true
	}

	switch {
	case childPath == queuesPath || strings.HasPrefix(childPath, queuesPath+"/"):
		info, ok := ParsePathInfo(queuesPath, childPath)
		if !ok {
			return nil, false
		}
		return p.projectQueues(ctx, ag, info)

	case childPath == logPath:
		return &Node{
			ResourceType: TypeLog,
			Properties:   map[string]any{"items": ag.Log().Lines()},
		}, true

	case childPath == statusPath:
		state, err := ag.State(ctx)
		if err != nil {
			return nil, false
		}
		return &Node{
			ResourceType: TypeStatus,
			Properties:   map[string]any{"state": string(state)},
		}, true

	default:
		return nil, false
	}
}

func (p *Provider) projectQueues(ctx context.Context, ag *agent.Agent, info PathInfo) (*Node, bool) {
	if info.IsRoot() {
		names := ag.QueueNames()
		return &Node{
			ResourceType: TypeQueueList,
			Properties:   map[string]any{"items": names},
			Children:     names,
		}, true
	}

	q, err := ag.Queue(info.Main())
	if err != nil {
		return nil, false
	}
	if info.IsMain() {
		return p.queueNode(ctx, q)
	}
	return p.itemNode(ctx, q, info.Child())
}

func (p *Provider) queueNode(ctx context.Context, q queue.Queue) (*Node, bool) {
	state, err := q.State(ctx)
	if err != nil {
		return nil, false
	}
	empty, err := q.IsEmpty(ctx)
	if err != nil {
		return nil, false
	}
	count, err := q.ItemsCount(ctx)
	if err != nil {
		return nil, false
	}
	items, err := q.Items(ctx, 0, p.itemCap)
	if err != nil {
		return nil, false
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return &Node{
		ResourceType: TypeQueue,
		Properties: map[string]any{
			"state":      string(state),
			"empty":      empty,
			"itemsCount": count,
			"items":      ids,
		},
		Children: ids,
	}, true
}

func (p *Provider) itemNode(ctx context.Context, q queue.Queue, itemID string) (*Node, bool) {
	item, err := q.Item(ctx, itemID)
	if err != nil || item == nil {
		return nil, false
	}
	status, err := q.Status(ctx, itemID)
	if err != nil {
		// Removed between the two reads.
		return nil, false
	}

	props := map[string]any{
		"id":       item.ID,
		"paths":    item.Package.Paths,
		"action":   string(item.Package.Action),
		"type":     item.Package.Type,
		"attempts": status.Attempts,
		"time":     status.Entered.UTC().Format(time.RFC3339Nano),
		"state":    string(status.State),
	}
	if status.LastError != "" {
		props["lastError"] = status.LastError
	}
	return &Node{ResourceType: TypeQueueItem, Properties: props}, true
}
