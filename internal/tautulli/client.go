// Package tautulli is a minimal client for the Tautulli v2 command API.
package tautulli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrEmptyPayload is returned when the API answers successfully but carries
// no usable data. Callers treat it the same as a transport failure.
var ErrEmptyPayload = errors.New("tautulli: empty payload")

// Client talks to a Tautulli server over its /api/v2 command interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the Tautulli server at baseURL.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// envelope is the standard Tautulli API response wrapper.
type envelope struct {
	Response struct {
		Result  string          `json:"result"`
		Message *string         `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"response"`
}

// command performs one API call and returns the raw data payload.
func (c *Client) command(ctx context.Context, cmd string, params url.Values) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("cmd", cmd)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	endpoint := fmt.Sprintf("%s/api/v2?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", cmd, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call %s: status %d", cmd, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Response.Result != "success" {
		msg := ""
		if env.Response.Message != nil {
			msg = *env.Response.Message
		}
		return nil, &refusalError{cmd: cmd, msg: msg}
	}
	return env.Response.Data, nil
}

// refusalError marks an API-level "error" result as opposed to a transport
// failure. Terminate calls map it to a refusal verdict; everywhere else it
// surfaces as an ordinary error.
type refusalError struct {
	cmd string
	msg string
}

func (e *refusalError) Error() string {
	return fmt.Sprintf("call %s: %s", e.cmd, e.msg)
}

// Activity fetches the current playback activity snapshot. The payload is
// returned as an untyped map because Tautulli guarantees nothing about the
// presence or types of individual fields. An empty or null payload is an
// error: the server is considered unreachable.
func (c *Client) Activity(ctx context.Context) (map[string]any, error) {
	data, err := c.command(ctx, "get_activity", nil)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" || string(data) == "{}" {
		return nil, ErrEmptyPayload
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode activity: %w", err)
	}
	if len(payload) == 0 {
		return nil, ErrEmptyPayload
	}
	return payload, nil
}

// TerminateSession asks the server to stop the given playback session,
// showing message to the affected user. The returned bool is the server's
// verdict; an error means the request itself failed.
func (c *Client) TerminateSession(ctx context.Context, sessionID, message string) (bool, error) {
	params := url.Values{}
	params.Set("session_id", sessionID)
	if message != "" {
		params.Set("message", message)
	}
	_, err := c.command(ctx, "terminate_session", params)
	if err != nil {
		// A non-success result is the API refusing, not a transport failure.
		var refusal *refusalError
		if errors.As(err, &refusal) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ServerStatus reports whether the media server behind Tautulli is up.
func (c *Client) ServerStatus(ctx context.Context) (bool, error) {
	data, err := c.command(ctx, "server_status", nil)
	if err != nil {
		return false, err
	}
	var status struct {
		Connected bool `json:"connected"`
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return false, fmt.Errorf("decode server status: %w", err)
	}
	return status.Connected, nil
}

// Libraries fetches the library section list as untyped records.
func (c *Client) Libraries(ctx context.Context) ([]map[string]any, error) {
	data, err := c.command(ctx, "get_libraries", nil)
	if err != nil {
		return nil, err
	}
	var libs []map[string]any
	if err := json.Unmarshal(data, &libs); err != nil {
		return nil, fmt.Errorf("decode libraries: %w", err)
	}
	return libs, nil
}

// Library fetches detail for one library section as an untyped record.
func (c *Client) Library(ctx context.Context, sectionID string) (map[string]any, error) {
	params := url.Values{}
	params.Set("section_id", sectionID)
	data, err := c.command(ctx, "get_library", params)
	if err != nil {
		return nil, err
	}
	var lib map[string]any
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	return lib, nil
}
