package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeLogging()
	c.normalizeDelivery()
	c.normalizeNotifications()
	c.normalizeAgents()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeDelivery() {
	if c.Delivery.PollInterval <= 0 {
		c.Delivery.PollInterval = defaultPollInterval
	}
	if c.Delivery.RetryDelay <= 0 {
		c.Delivery.RetryDelay = defaultRetryDelay
	}
	if c.Delivery.RequestTimeout <= 0 {
		c.Delivery.RequestTimeout = defaultRequestTimeout
	}
	if c.Delivery.ItemListCap <= 0 {
		c.Delivery.ItemListCap = defaultItemListCap
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.WebhookURL = strings.TrimSpace(c.Notifications.WebhookURL)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeAgents() {
	for i := range c.Agents {
		agent := &c.Agents[i]
		agent.Name = strings.TrimSpace(agent.Name)
		agent.Endpoint = strings.TrimSpace(agent.Endpoint)
		agent.Backend = strings.ToLower(strings.TrimSpace(agent.Backend))
		if agent.Backend == "" {
			agent.Backend = BackendSQLite
		}
		agent.OnGiveUp = strings.ToLower(strings.TrimSpace(agent.OnGiveUp))
		if agent.OnGiveUp == "" {
			agent.OnGiveUp = GiveUpErrorQueue
		}
		if agent.MaxAttempts <= 0 {
			agent.MaxAttempts = defaultMaxAttempts
		}
		if agent.Capacity < 0 {
			agent.Capacity = 0
		}
		agent.Queues = normalizeQueueNames(agent.Queues)
		if len(agent.Queues) == 0 {
			agent.Queues = []string{DefaultQueueName}
		}
		agent.Routing = normalizeRouting(agent.Routing)
	}
}

func normalizeQueueNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		normalized := strings.TrimSpace(name)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func normalizeRouting(routing map[string][]string) map[string][]string {
	if len(routing) == 0 {
		return nil
	}
	out := make(map[string][]string, len(routing))
	for queue, prefixes := range routing {
		queue = strings.TrimSpace(queue)
		if queue == "" {
			continue
		}
		kept := make([]string, 0, len(prefixes))
		for _, prefix := range prefixes {
			prefix = strings.TrimSpace(prefix)
			if prefix == "" {
				continue
			}
			kept = append(kept, prefix)
		}
		if len(kept) == 0 {
			continue
		}
		out[queue] = kept
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
