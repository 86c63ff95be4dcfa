package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"courier/internal/config"
)

const userAgent = "Courier-Go/0.1.0"

// Service defines the notification surface exposed to the daemon and the
// delivery workers.
type Service interface {
	NotifyItemGivenUp(ctx context.Context, agent, queue, itemID string, attempts int, reason string) error
	NotifyAgentBlocked(ctx context.Context, agent, queue string) error
	NotifyQueueCleared(ctx context.Context, agent, queue string, removed int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by the configured webhook.
// When no webhook URL is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	url := strings.TrimSpace(cfg.Notifications.WebhookURL)
	if url == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &webhookService{
		endpoint: url,
		client:   &http.Client{Timeout: timeout},
	}
}

type event struct {
	Event    string `json:"event"`
	Message  string `json:"message"`
	Agent    string `json:"agent,omitempty"`
	Queue    string `json:"queue,omitempty"`
	ItemID   string `json:"item_id,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Removed  int    `json:"removed,omitempty"`
	Time     string `json:"time"`
}

type webhookService struct {
	endpoint string
	client   *http.Client
}

func (s *webhookService) NotifyItemGivenUp(ctx context.Context, agent, queue, itemID string, attempts int, reason string) error {
	return s.send(ctx, event{
		Event:    "item_given_up",
		Message:  fmt.Sprintf("delivery of %s abandoned after %d attempts", itemID, attempts),
		Agent:    agent,
		Queue:    queue,
		ItemID:   itemID,
		Attempts: attempts,
		Reason:   reason,
	})
}

func (s *webhookService) NotifyAgentBlocked(ctx context.Context, agent, queue string) error {
	return s.send(ctx, event{
		Event:   "agent_blocked",
		Message: fmt.Sprintf("queue %s of agent %s is blocked", queue, agent),
		Agent:   agent,
		Queue:   queue,
	})
}

func (s *webhookService) NotifyQueueCleared(ctx context.Context, agent, queue string, removed int) error {
	return s.send(ctx, event{
		Event:   "queue_cleared",
		Message: fmt.Sprintf("queue %s of agent %s cleared (%d items dropped)", queue, agent, removed),
		Agent:   agent,
		Queue:   queue,
		Removed: removed,
	})
}

func (s *webhookService) TestNotification(ctx context.Context) error {
	return s.send(ctx, event{
		Event:   "test",
		Message: "notification system test",
	})
}

func (s *webhookService) send(ctx context.Context, data event) error {
	if s == nil || s.client == nil {
		return nil
	}
	data.Time = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyItemGivenUp(context.Context, string, string, string, int, string) error {
	return nil
}

func (noopService) NotifyAgentBlocked(context.Context, string, string) error { return nil }

func (noopService) NotifyQueueCleared(context.Context, string, string, int) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
