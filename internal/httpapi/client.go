package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/abhisek/mathtutor/internal/sse"
	"github.com/abhisek/mathtutor/internal/tutor"
)

// Client talks to a running tutor server.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// AskStep posts the question and relays the streamed answer to onDelta.
// An error frame in the stream comes back as *sse.StreamError.
func (c *Client) AskStep(ctx context.Context, sessionID string, req tutor.AskRequest, onDelta func(string) error) (sse.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return sse.Result{}, fmt.Errorf("encode ask request: %w", err)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tutor/ask", bytes.NewReader(body))
	if err != nil {
		return sse.Result{}, err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "text/event-stream")
	if sessionID != "" {
		r.Header.Set(HeaderSession, sessionID)
	}

	resp, err := c.http.Do(r)
	if err != nil {
		return sse.Result{}, fmt.Errorf("ask %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sse.Result{}, responseError(resp)
	}
	return sse.Consume(resp.Body, onDelta)
}

// ResponseError is a non-200 answer from the server.
type ResponseError struct {
	Status int
	APIError
}

func (e *ResponseError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Code, e.Message)
}

func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env ErrorEnvelope
	if json.Unmarshal(data, &env) != nil || env.Error.Message == "" {
		env.Error.Message = strings.TrimSpace(string(data))
	}
	return &ResponseError{Status: resp.StatusCode, APIError: env.Error}
}
