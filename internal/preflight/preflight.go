package preflight

import (
	"context"

	"courier/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run for features that are configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Data directory (always checked, holds the queue database)
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	// Log directory (when configured)
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// Queue database
	results = append(results, CheckDatabase(cfg))

	// Replica endpoints, one per agent
	results = append(results, CheckAgentEndpoints(ctx, cfg)...)

	// Notification webhook
	results = append(results, CheckWebhookFromConfig(cfg))

	return results
}
