package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
)

// EventPoster forwards signup events to the analytics sink.
type EventPoster interface {
	PostEvent(ctx context.Context, event string, payload map[string]any, requestID string) error
}

// AnalyticsClient posts JSON events to the analytics service.
type AnalyticsClient struct {
	client  *http.Client
	baseURL string
}

// NewAnalyticsClient builds an analytics client. When `client == nil` it
// automatically creates an ID-token client for Cloud Run to Cloud Run calls.
func NewAnalyticsClient(client *http.Client, baseURL string) *AnalyticsClient {
	if baseURL == "" {
		panic("analytics base URL must not be empty")
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if client == nil {
		idc, err := idtoken.NewClient(context.Background(), baseURL)
		if err != nil {
			client = &http.Client{Timeout: 10 * time.Second}
		} else {
			client = idc
		}
	}
	return &AnalyticsClient{client: client, baseURL: baseURL}
}

// PostEvent posts the event to the analytics sink.
func (c *AnalyticsClient) PostEvent(ctx context.Context, event string, payload map[string]any, requestID string) error {
	body := map[string]any{"event": event}
	for k, v := range payload {
		body[k] = v
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("analytics error: %s", extractAnalyticsError(resp.Body))
	}
	return nil
}

func extractAnalyticsError(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return "analytics sink returned an error"
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(data)
}

var _ EventPoster = (*AnalyticsClient)(nil)
