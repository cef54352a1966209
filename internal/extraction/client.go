package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const chatPath = "/api/interactions/chat"

// ErrMissingData is returned when a 2xx response carries no "data" member.
var ErrMissingData = errors.New("response has no data")

// StatusError is a non-2xx answer from the extraction service.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("Server error (%d)", e.StatusCode)
}

// Response is one successful round-trip. Data is the raw extraction payload,
// left undecoded because its shape is not under our control.
type Response struct {
	Message       string          `json:"message"`
	Data          json.RawMessage `json:"data"`
	InteractionID string          `json:"interaction_id,omitempty"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client for the extraction service at baseURL. A zero
// timeout leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type request struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// Chat posts the user's free text and returns the service's reply.
func (c *Client) Chat(ctx context.Context, text string) (*Response, error) {
	body, err := json.Marshal(request{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: detail(respBody)}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(respBody, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if _, ok := fields["data"]; !ok {
		return nil, ErrMissingData
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}

// detail pulls a human readable reason out of an error body. FastAPI puts a
// string there for HTTPException and a list of objects for validation errors.
func detail(body []byte) string {
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) != nil || len(errResp.Detail) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(errResp.Detail, &s) == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(errResp.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
