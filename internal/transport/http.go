package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"courier/internal/payload"
)

const userAgent = "Courier-Go/0.1.0"

// HTTPDeliverer posts package descriptors as JSON to the agent endpoint.
type HTTPDeliverer struct {
	client *http.Client
}

// NewHTTP builds a deliverer with the given per-request timeout.
func NewHTTP(timeout time.Duration) *HTTPDeliverer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPDeliverer{client: &http.Client{Timeout: timeout}}
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, endpoint string, pkg payload.Package) error {
	body, err := pkg.Marshal()
	if err != nil {
		return &Error{Endpoint: endpoint, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Endpoint: endpoint, Reason: "build request: " + err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return &Error{Endpoint: endpoint, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		reason := strings.TrimSpace(string(snippet))
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &Error{Endpoint: endpoint, Status: resp.StatusCode, Reason: reason}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
