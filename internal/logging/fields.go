package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAgent is the standardized structured logging key for distribution agent names.
	FieldAgent = "agent"
	// FieldQueue is the standardized structured logging key for queue names.
	FieldQueue = "queue"
	// FieldItemID is the standardized structured logging key for queue item identifiers.
	FieldItemID = "item_id"
	// FieldAttempt is the standardized structured logging key for delivery attempt counters.
	FieldAttempt = "attempt"
	// FieldEndpoint is the standardized structured logging key for delivery endpoints.
	FieldEndpoint = "endpoint"
	// FieldAction is the standardized structured logging key for package actions.
	FieldAction = "action"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
)
