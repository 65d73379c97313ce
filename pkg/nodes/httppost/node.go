// Package httppost provides the send-POST-request step implementation for workflow execution.
package httppost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
)

// DefaultTimeoutSeconds is the request timeout used when none is configured.
const DefaultTimeoutSeconds = 30

// MaxResponseBytes caps how much of a response body is read. Longer bodies
// are truncated; a truncated JSON body is reported only under 'body'.
const MaxResponseBytes = 1 << 20

// PostNode POSTs its input as JSON to a fixed URL.
type PostNode struct {
	id      string
	url     string
	headers map[string]string
	timeout time.Duration
}

// HTTPError represents a non-2xx response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewPostNode creates a new send-POST-request step.
func NewPostNode(id string, params map[string]any) (*PostNode, error) {
	url, ok := params["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	node := &PostNode{
		id:      id,
		url:     url,
		headers: make(map[string]string),
		timeout: DefaultTimeoutSeconds * time.Second,
	}

	switch headers := params["headers"].(type) {
	case map[string]any:
		for k, v := range headers {
			if strVal, ok := v.(string); ok {
				node.headers[k] = strVal
			}
		}
	case map[string]string:
		for k, v := range headers {
			node.headers[k] = v
		}
	}

	switch timeout := params["timeout"].(type) {
	case json.Number:
		seconds, err := timeout.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", timeout, err)
		}

		node.timeout = time.Duration(seconds * float64(time.Second))
	case float64:
		node.timeout = time.Duration(timeout * float64(time.Second))
	case int:
		node.timeout = time.Duration(timeout) * time.Second
	}

	if node.timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", node.timeout)
	}

	return node, nil
}

// ID returns the node ID.
func (n *PostNode) ID() string {
	return n.id
}

// Kind returns the step kind.
func (n *PostNode) Kind() models.StepKind {
	return models.StepKindSendPostRequest
}

// Execute sends the request. The output carries 'status_code', 'body' and,
// when the response is JSON, the decoded 'json' value. At most
// MaxResponseBytes of the body are read.
func (n *PostNode) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	result := map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(respBody),
	}

	var jsonBody any
	if err := json.Unmarshal(respBody, &jsonBody); err == nil {
		result["json"] = jsonBody
	}

	return result, nil
}
