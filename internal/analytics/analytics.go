// Package analytics reports operational events to a collection endpoint.
// Reporting is strictly best-effort: a failure here must never affect the
// operation that raised the event.
package analytics

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client posts events to a collection endpoint. The zero value is not
// usable; use New or Disabled.
type Client struct {
	endpoint   string
	clientID   string
	httpClient *http.Client
}

// New creates a Client posting to endpoint. The client id is generated per
// process; no user-identifying data is ever sent.
func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		clientID: uuid.New().String(),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Disabled returns a Client that drops every event.
func Disabled() *Client {
	return &Client{}
}

type event struct {
	ClientID string `json:"client_id"`
	EventID  string `json:"event_id"`
	Category string `json:"category"`
	Action   string `json:"action"`
	At       string `json:"at"`
}

// Event reports one event. Errors are logged at warn and swallowed; the
// call never blocks the caller beyond the HTTP timeout and never fails.
func (c *Client) Event(category, action string) {
	if c.endpoint == "" {
		return
	}

	payload, err := json.Marshal(event{
		ClientID: c.clientID,
		EventID:  uuid.New().String(),
		Category: category,
		Action:   action,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Warn("analytics marshal failed", "error", err)
		return
	}

	resp, err := c.httpClient.Post(c.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		slog.Warn("analytics post failed", "error", err)
		return
	}
	resp.Body.Close()
}
