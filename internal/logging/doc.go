// Package logging assembles structured slog loggers and formatting helpers
// used across Courier services.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and standardizes the field keys that tag log lines with
// agent, queue, and item identifiers. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
