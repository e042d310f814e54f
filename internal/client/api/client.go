// Package api is the HTTP sync transport: the network boundary between the
// engine and the authoritative cart store service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mercanto/cartsync/internal/models"
	"github.com/mercanto/cartsync/pkg/api"
)

// DefaultTimeout bounds every push/pull round-trip. Expiry is a transport
// failure, never a conflict.
const DefaultTimeout = 10 * time.Second

// TransportError marks an outcome the coordinator may retry with backoff:
// timeout, unreachable host, or a malformed response. It is a distinct
// outcome from a version conflict, which is resolved, not retried blindly.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is a retryable transport failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// PushOutcome is the store's answer to a push: either the batch was
// accepted and the cart version advanced, or the declared base version was
// stale and the store returned the events the client is missing.
type PushOutcome struct {
	Accepted      bool
	NewVersion    int64
	Conflict      bool
	ServerEvents  []models.SyncEvent
	ServerVersion int64
}

// Client is the HTTP client for the cart store service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a transport client for the store at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Push sends a batch of pending events declared against baseVersion.
// A returned error is always a *TransportError; a conflict is a normal
// outcome reported through PushOutcome.
func (c *Client) Push(ctx context.Context, cartID, deviceID string, baseVersion int64, events []models.SyncEvent) (*PushOutcome, error) {
	req := api.PushRequest{
		CartID:      cartID,
		DeviceID:    deviceID,
		BaseVersion: baseVersion,
		Events:      models.EventsToWire(events),
	}

	var resp api.PushResponse
	if err := c.doRequest(ctx, http.MethodPost, "/cart/sync", req, &resp); err != nil {
		return nil, &TransportError{Op: "push", Err: err}
	}

	if resp.Conflict {
		return &PushOutcome{
			Conflict:      true,
			ServerEvents:  models.EventsFromWire(resp.ServerEvents),
			ServerVersion: resp.ServerVersion,
		}, nil
	}
	if !resp.Accepted {
		return nil, &TransportError{Op: "push", Err: errors.New("response is neither accepted nor conflict")}
	}

	return &PushOutcome{Accepted: true, NewVersion: resp.NewVersion}, nil
}

// Pull fetches events accepted after sinceVersion, plus the store's current
// version.
func (c *Client) Pull(ctx context.Context, cartID string, sinceVersion int64) ([]models.SyncEvent, int64, error) {
	path := fmt.Sprintf("/cart/state?cartId=%s&sinceVersion=%d", cartID, sinceVersion)

	var resp api.PullResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, 0, &TransportError{Op: "pull", Err: err}
	}

	return models.EventsFromWire(resp.Events), resp.Version, nil
}

// RegisterDevice registers this device with the store, also used as the
// heartbeat.
func (c *Client) RegisterDevice(ctx context.Context, cartID string, rec *models.DeviceRecord) error {
	req := api.DeviceRequest{
		CartID: cartID,
		Device: models.DeviceToWire(rec),
	}

	if err := c.doRequest(ctx, http.MethodPost, "/cart/sync/device", req, nil); err != nil {
		return &TransportError{Op: "register-device", Err: err}
	}
	return nil
}

// doRequest performs one HTTP round-trip with JSON encoding on both sides.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
