package preflight

import (
	"context"
	"fmt"
	"strings"

	"courier/internal/config"
)

// CheckWebhookFromConfig evaluates webhook status from config and connectivity.
func CheckWebhookFromConfig(cfg *config.Config) Result {
	const name = "Notification webhook"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Notifications.WebhookURL) == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return CheckEndpoint(context.Background(), name, cfg.Notifications.WebhookURL)
}

// CheckAgentEndpoints evaluates replica reachability for every configured agent.
func CheckAgentEndpoints(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := make([]Result, 0, len(cfg.Agents))
	for _, agent := range cfg.Agents {
		results = append(results, CheckEndpoint(ctx, fmt.Sprintf("Agent %s endpoint", agent.Name), agent.Endpoint))
	}
	return results
}
