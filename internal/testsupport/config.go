package testsupport

import (
	"path/filepath"
	"testing"

	"courier/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.API.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithAgent appends an agent definition to the test config.
func WithAgent(agent config.Agent) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Agents = append(cfg.Agents, agent)
	}
}

// WithWebhook points notifications at the given URL.
func WithWebhook(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.WebhookURL = url
	}
}

// SimpleAgent returns a minimal valid agent definition for tests. The
// endpoint does not need to be reachable unless a delivery worker runs.
func SimpleAgent(name string, queues ...string) config.Agent {
	if len(queues) == 0 {
		queues = []string{config.DefaultQueueName}
	}
	return config.Agent{
		Name:        name,
		Endpoint:    "http://127.0.0.1:1/receive",
		Queues:      queues,
		Backend:     config.BackendMemory,
		MaxAttempts: 2,
		OnGiveUp:    config.GiveUpErrorQueue,
	}
}
