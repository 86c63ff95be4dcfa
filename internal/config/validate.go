package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateAgents(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDelivery() error {
	return ensurePositiveMap(map[string]int{
		"delivery.poll_interval":   c.Delivery.PollInterval,
		"delivery.retry_delay":     c.Delivery.RetryDelay,
		"delivery.request_timeout": c.Delivery.RequestTimeout,
		"delivery.item_list_cap":   c.Delivery.ItemListCap,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.WebhookURL != "" {
		if err := validateHTTPURL(c.Notifications.WebhookURL); err != nil {
			return fmt.Errorf("notifications.webhook_url: %w", err)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateAgents() error {
	seen := make(map[string]struct{}, len(c.Agents))
	for i := range c.Agents {
		agent := c.Agents[i]
		if agent.Name == "" {
			return fmt.Errorf("agents[%d].name must be set", i)
		}
		if !validName(agent.Name) {
			return fmt.Errorf("agent %q: name may only contain letters, digits, '.', '-' and '_'", agent.Name)
		}
		if _, dup := seen[agent.Name]; dup {
			return fmt.Errorf("agent %q is declared more than once", agent.Name)
		}
		seen[agent.Name] = struct{}{}
		if err := validateAgent(agent); err != nil {
			return fmt.Errorf("agent %q: %w", agent.Name, err)
		}
	}
	return nil
}

func validateAgent(agent Agent) error {
	if agent.Endpoint == "" {
		return errors.New("endpoint must be set")
	}
	if err := validateHTTPURL(agent.Endpoint); err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	switch agent.Backend {
	case BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("backend must be %q or %q", BackendSQLite, BackendMemory)
	}
	switch agent.OnGiveUp {
	case GiveUpDrop, GiveUpErrorQueue:
	default:
		return fmt.Errorf("on_give_up must be %q or %q", GiveUpDrop, GiveUpErrorQueue)
	}
	if agent.MaxAttempts < 1 {
		return errors.New("max_attempts must be >= 1")
	}
	declared := make(map[string]struct{}, len(agent.Queues))
	for _, queue := range agent.Queues {
		if !validName(queue) {
			return fmt.Errorf("queue %q: name may only contain letters, digits, '.', '-' and '_'", queue)
		}
		if queue == ErrorQueueName {
			return fmt.Errorf("queue name %q is reserved for the give-up policy", ErrorQueueName)
		}
		declared[queue] = struct{}{}
	}
	for queue, prefixes := range agent.Routing {
		if _, ok := declared[queue]; !ok {
			return fmt.Errorf("routing rule targets undeclared queue %q", queue)
		}
		for _, prefix := range prefixes {
			if !strings.HasPrefix(prefix, "/") {
				return fmt.Errorf("routing prefix %q for queue %q must start with '/'", prefix, queue)
			}
		}
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("url host must be set")
	}
	return nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

func ensurePositiveMap(fields map[string]int) error {
	for name, value := range fields {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
