// Package queue holds distribution queue items and their delivery status.
//
// A Queue is an ordered holding area for replication packages awaiting
// delivery by an agent. Every queued item carries a status record (attempts,
// first-enqueue time, lifecycle state) that the delivery loop advances
// through queued, active, and a terminal state. Item and status are always
// added and removed together; callers never observe one without the other.
//
// Two implementations share the Queue interface: an in-memory queue for
// volatile agents and tests, and a SQLite-backed store for durable agents.
// The store treats the database as transient storage for in-flight work
// rather than a long-term archive; schema changes bump the version in
// schema.go and users clear the database to adopt the new schema.
package queue
