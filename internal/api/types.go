package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Item describes a queue entry in a transport-friendly format.
type Item struct {
	ID        string   `json:"id"`
	Queue     string   `json:"queue,omitempty"`
	Paths     []string `json:"paths"`
	Action    string   `json:"action"`
	Type      string   `json:"type"`
	Attempts  int      `json:"attempts"`
	Entered   string   `json:"entered,omitempty"`
	State     string   `json:"state"`
	LastError string   `json:"lastError,omitempty"`
}

// QueueSummary is a point-in-time snapshot of one queue.
type QueueSummary struct {
	Name       string `json:"name"`
	State      string `json:"state"`
	Empty      bool   `json:"empty"`
	ItemsCount int    `json:"itemsCount"`
}

// AgentSummary aggregates an agent's runtime state for API consumers.
type AgentSummary struct {
	Name     string         `json:"name"`
	Endpoint string         `json:"endpoint"`
	State    string         `json:"state"`
	Paused   bool           `json:"paused"`
	Queues   []QueueSummary `json:"queues"`
}

// HealthCheck captures one startup or runtime verification result.
type HealthCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queueDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	SocketPath   string         `json:"socketPath"`
	Agents       []AgentSummary `json:"agents"`
	Checks       []HealthCheck  `json:"checks,omitempty"`
}

// AgentListResponse wraps agent summaries for API responses.
type AgentListResponse struct {
	Agents []AgentSummary `json:"agents"`
}

// ItemListResponse wraps a collection of queue items for API responses.
type ItemListResponse struct {
	Items []Item `json:"items"`
}

// SubmitRequest describes a package submission accepted over HTTP.
type SubmitRequest struct {
	Action string   `json:"action"`
	Paths  []string `json:"paths"`
	Type   string   `json:"type,omitempty"`
}

// SubmitResponse reports where a submitted package was enqueued.
type SubmitResponse struct {
	Queue string `json:"queue"`
	Item  Item   `json:"item"`
}
