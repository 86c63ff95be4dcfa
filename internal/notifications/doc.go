// Package notifications surfaces noteworthy distribution events to
// operators through an optional webhook.
//
// The daemon reports items that exhausted their delivery attempts, queues
// that entered the blocked state, and operator-initiated queue clears. When
// no webhook is configured every call is a cheap no-op, so callers never
// guard notification sends.
package notifications
