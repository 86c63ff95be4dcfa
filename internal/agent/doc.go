// Package agent owns the distribution agents: their queues, the routing of
// new packages, and the delivery loop that drains each queue.
//
// An Agent runs one worker goroutine per configured queue. The worker only
// ever looks at the queue head, which preserves strict FIFO delivery: a head
// that keeps failing blocks everything behind it until the retry policy
// requeues it or gives up. Give-up handling is configurable per agent; items
// either vanish or are parked on the reserved error queue where operators
// can inspect and retry them. The error queue is never drained by a worker.
//
// The Registry maps agent names to running agents for the daemon, the HTTP
// API, and the IPC surface.
package agent
