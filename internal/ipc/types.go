package ipc

import "courier/internal/api"

// Item mirrors the HTTP API queue item DTO for IPC callers.
type Item = api.Item

// AgentSummary mirrors the HTTP API agent DTO for IPC callers.
type AgentSummary = api.AgentSummary

// QueueSummary mirrors the HTTP API queue summary DTO for IPC callers.
type QueueSummary = api.QueueSummary

// HealthCheck mirrors the HTTP API check DTO for IPC callers.
type HealthCheck = api.HealthCheck

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse carries combined daemon and agent status.
type StatusResponse struct {
	Running     bool           `json:"running"`
	PID         int            `json:"pid"`
	QueueDBPath string         `json:"queue_db_path"`
	LockPath    string         `json:"lock_path"`
	SocketPath  string         `json:"socket_path"`
	Agents      []AgentSummary `json:"agents"`
	Checks      []HealthCheck  `json:"checks"`
}

// PauseAgentRequest stops new delivery activations for one agent.
type PauseAgentRequest struct {
	Agent string `json:"agent"`
}

// PauseAgentResponse reports the agent snapshot after the pause.
type PauseAgentResponse struct {
	Agent AgentSummary `json:"agent"`
}

// ResumeAgentRequest restarts delivery activations for one agent.
type ResumeAgentRequest struct {
	Agent string `json:"agent"`
}

// ResumeAgentResponse reports the agent snapshot after the resume.
type ResumeAgentResponse struct {
	Agent AgentSummary `json:"agent"`
}

// AgentLogRequest fetches recent activity lines for one agent. A
// non-positive limit returns everything the activity ring holds.
type AgentLogRequest struct {
	Agent string `json:"agent"`
	Limit int    `json:"limit"`
}

// AgentLogResponse carries activity lines, oldest first.
type AgentLogResponse struct {
	Agent string   `json:"agent"`
	Lines []string `json:"lines"`
}

// QueueListRequest pages through one queue's items.
type QueueListRequest struct {
	Agent  string `json:"agent"`
	Queue  string `json:"queue"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

// QueueListResponse contains queue entries in delivery order.
type QueueListResponse struct {
	Items []Item `json:"items"`
}

// QueueRemoveRequest removes specific items from one queue.
type QueueRemoveRequest struct {
	Agent string   `json:"agent"`
	Queue string   `json:"queue"`
	IDs   []string `json:"ids"`
}

// QueueRemoveResponse reports the number of removed entries.
type QueueRemoveResponse struct {
	Removed int `json:"removed"`
}

// QueueRetryRequest requeues parked items from the error queue. Empty IDs
// retries every parked item.
type QueueRetryRequest struct {
	Agent string   `json:"agent"`
	IDs   []string `json:"ids"`
}

// QueueRetryResponse reports the number of requeued entries.
type QueueRetryResponse struct {
	Retried int `json:"retried"`
}

// QueueClearRequest empties one queue.
type QueueClearRequest struct {
	Agent string `json:"agent"`
	Queue string `json:"queue"`
}

// QueueClearResponse reports the number of removed entries.
type QueueClearResponse struct {
	Removed int `json:"removed"`
}

// SubmitRequest enqueues a new package on one agent.
type SubmitRequest struct {
	Agent  string   `json:"agent"`
	Action string   `json:"action"`
	Paths  []string `json:"paths"`
	Type   string   `json:"type"`
}

// SubmitResponse reports where the package was enqueued.
type SubmitResponse struct {
	Queue string `json:"queue"`
	Item  Item   `json:"item"`
}

// TestNotificationRequest triggers a webhook test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test results.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
