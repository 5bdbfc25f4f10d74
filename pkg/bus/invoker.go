package bus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"puretasks/pkg/trace"
)

// Invoker performs typed outbound calls to a peer service. The concrete
// implementation rides the bus sidecar's service-invocation facility;
// tests substitute fakes.
type Invoker interface {
	Invoke(ctx context.Context, method, path string, body any, out any) error
}

// TokenSource supplies a bearer token for outbound calls. A nil source
// leaves requests unauthenticated.
type TokenSource func() (string, error)

// StatusError is returned when the peer answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("peer returned %d: %s", e.Code, e.Body)
}

// SidecarClient invokes the task-owning backend through the local bus
// sidecar: http://localhost:{port}/v1.0/invoke/{app}/method/{path}.
type SidecarClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewSidecarClient builds an invoker for the given sidecar port and peer
// app id. Timeouts are set per call via context, so the underlying
// client carries none of its own.
func NewSidecarClient(sidecarPort, appID string, tokens TokenSource) *SidecarClient {
	return &SidecarClient{
		baseURL:    fmt.Sprintf("http://localhost:%s/v1.0/invoke/%s/method", sidecarPort, appID),
		httpClient: &http.Client{},
		tokens:     tokens,
	}
}

func (c *SidecarClient) Invoke(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.Header, traceID)
	}
	if c.tokens != nil {
		token, err := c.tokens()
		if err != nil {
			return fmt.Errorf("failed to mint service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode peer response: %w", err)
		}
	}
	return nil
}
