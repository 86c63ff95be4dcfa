// Package projection materializes agent, queue, and item state as a
// hierarchical introspection tree.
//
// The tree is derived on every read and never stored: a node is computed
// from live registry and queue state at request time. Lookups that race the
// delivery worker (an item removed between two reads, a queue that vanished)
// resolve to absent rather than an error, so dashboards polling the tree
// never see failures from normal queue churn.
//
// The HTTP API mounts the tree under /agents/<name>/..., mirroring the
// shape queues/<queueName>/<itemId> plus the log and status leaves.
package projection
