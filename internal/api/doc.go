// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates queue and agent models into transport-friendly
// DTOs so that clients can render status without coupling to internal types.
//
// # Key Types
//
// Item: transport representation of a queue entry with its delivery status.
//
// QueueSummary/AgentSummary: point-in-time snapshots of a queue or an agent,
// including derived states.
//
// DaemonStatus: aggregated runtime information including startup checks.
//
// # Converters
//
// FromItem: queue.Item plus queue.ItemStatus -> Item.
//
// FromQueue/FromAgent: live snapshot reads against a queue or agent.
//
// ItemsSnapshot: bounded item listing tolerant of concurrent removal.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (queue.ItemState, queue.State,
// agent.State) are exposed as lowercase strings. Timestamps use RFC3339 with
// milliseconds.
package api
