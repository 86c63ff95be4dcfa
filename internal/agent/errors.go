package agent

import "errors"

var (
	// ErrAgentUnknown reports a registry lookup for a name no agent carries.
	ErrAgentUnknown = errors.New("agent unknown")

	// ErrQueueNotFound reports a queue name the agent does not own.
	ErrQueueNotFound = errors.New("queue not found")
)
