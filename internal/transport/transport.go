// Package transport pushes packages to remote instances.
//
// A Deliverer performs exactly one delivery attempt; retry policy, attempt
// counting, and give-up handling belong to the agent layer. Failures are
// reported as *Error values carrying the endpoint and, when the endpoint
// answered, the HTTP status.
package transport

import (
	"context"
	"fmt"

	"courier/internal/payload"
)

// Deliverer pushes one package to a remote endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, endpoint string, pkg payload.Package) error
}

// Error describes a failed delivery attempt. It is recorded on the item
// status by the delivery worker and never propagates further.
type Error struct {
	Endpoint string
	Status   int
	Reason   string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("deliver to %s: %s (status %d)", e.Endpoint, e.Reason, e.Status)
	}
	return fmt.Sprintf("deliver to %s: %s", e.Endpoint, e.Reason)
}
