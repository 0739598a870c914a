package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"shopstream.app/sync/core/config"
)

const batchPath = "/v1/batch"

// maxErrorBody bounds how much of an error response is read into the error
// message.
const maxErrorBody = 4 * 1024

// APIError is a non-2xx response from the ingestion API. The status code
// drives retry classification upstream.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ingestion api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("ingestion api: status %d: %s", e.StatusCode, e.Message)
}

// Client sends event batches to a Segment-compatible HTTP ingestion API.
// It is an explicitly constructed value with no process-wide state; tests and
// dry runs build their own instances. SendBatch is synchronous: a nil return
// means the API accepted the whole batch.
type Client struct {
	endpoint   string
	writeKey   string
	dryRun     bool
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg config.SegmentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		writeKey:   cfg.WriteKey,
		dryRun:     cfg.DryRun(),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// DryRun reports whether the client acknowledges batches without sending.
func (c *Client) DryRun() bool {
	return c.dryRun
}

// SendBatch transmits one batch and blocks until the API acknowledges it.
// Returns *APIError for non-2xx responses; transport errors come back as-is.
func (c *Client) SendBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	if c.dryRun {
		slog.InfoContext(ctx, "dry run: skipping batch send", "events", len(events))
		return nil
	}

	sentAt := c.now()
	messages := make([]map[string]any, len(events))
	for i, ev := range events {
		messages[i] = ev.message(sentAt)
	}

	body, err := json.Marshal(map[string]any{
		"batch":  messages,
		"sentAt": sentAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshaling batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+batchPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building batch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.writeKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
