// Package daemon coordinates the long-running Courier process.
//
// It wires configuration, the queue store, the agent registry, and the
// notifier into a single lifecycle with flock-based locking to prevent
// multiple instances. Startup requeues deliveries interrupted by the
// previous shutdown, runs the preflight checks, starts every agent's
// delivery workers, and brings up the HTTP API server. The daemon also
// owns the operator surface used by IPC and HTTP: pause/resume, activity
// viewing, queue listing, removal, retry of parked items, and package
// submission.
//
// Keep orchestration logic here: delivery mechanics live in the agent
// package while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
