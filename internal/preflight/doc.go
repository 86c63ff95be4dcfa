// Package preflight provides readiness checks for the directories,
// replica endpoints, and webhook that Courier depends on.
//
// The daemon calls RunAll at startup and logs every failure, so a
// misconfigured replica is visible before the first delivery attempt. The
// results ride along on the daemon status response, which is how they reach
// the "courier status" output.
//
// Endpoint checks only verify reachability. Any HTTP response passes,
// because replicas commonly reject non-POST probes with 405.
package preflight
