package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ml-segregation-be/internal/pkg/logger"
	"ml-segregation-be/pkg/pipeline/sets"
)

// Error reports a failed delivery attempt. StatusCode is zero when the
// request never reached the endpoint.
type Error struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("dispatch to %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("dispatch to %s failed: %v", e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Ack is the acknowledgment body the development system replies with.
type Ack struct {
	Status string `json:"status"`
}

// Client delivers a learning-set bundle to a downstream endpoint. One call
// is one delivery attempt; retry policy belongs to the caller.
type Client interface {
	Send(ctx context.Context, bundle *sets.Bundle, endpoint string) error
}

type HTTPClient struct {
	http   *http.Client
	logger logger.ILogger
}

func NewHTTPClient(timeout time.Duration, log logger.ILogger) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		http:   &http.Client{Timeout: timeout},
		logger: log,
	}
}

func (c *HTTPClient) Send(ctx context.Context, bundle *sets.Bundle, endpoint string) error {
	body, err := json.Marshal(bundle)
	if err != nil {
		return &Error{Endpoint: endpoint, Err: fmt.Errorf("failed to encode bundle: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		// A 2xx without a parsable body still counts as delivered.
		ack.Status = "ok"
	}

	c.logger.Info("Dispatch", "Learning sets delivered", map[string]interface{}{
		"endpoint": endpoint,
		"sessions": bundle.Size(),
		"ack":      ack.Status,
	})
	return nil
}
