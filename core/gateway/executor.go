// Package gateway forwards recognized commands to the remote assistant
// gateway over HTTP and extracts the text to speak from its reply.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultURL     = "http://127.0.0.1:3000/v1/assistant"
	DefaultTimeout = 10 * time.Second
)

// responseKeys lists the reply fields checked for the spoken response, in
// priority order.
var responseKeys = []string{"response", "reply", "text", "message", "output"}

var ErrUnexpectedStatus = errors.New("non-OK HTTP status")

type HTTPExecutor struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

type ExecutorOption func(*HTTPExecutor)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(client *http.Client) ExecutorOption {
	return func(e *HTTPExecutor) {
		if client != nil {
			e.client = client
		}
	}
}

func NewHTTPExecutor(url string, timeout time.Duration, opts ...ExecutorOption) *HTTPExecutor {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	executor := &HTTPExecutor{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

func (e *HTTPExecutor) URL() string { return e.url }

// Execute posts {"text": prompt} once, bounded by the executor timeout. JSON
// object replies are reduced with ExtractResponse; when no known field matches
// or the body is not a JSON object the trimmed raw body is returned.
func (e *HTTPExecutor) Execute(ctx context.Context, prompt string) (response string, err error) {
	ctx, span := tracer.Start(ctx, "execute gateway action")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	span.SetAttributes(attribute.String("request.url", req.URL.String()))

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetAttributes(attribute.String("response.error", string(respBody)))
		return "", fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	response = decodeResponse(resp.Header.Get("Content-Type"), respBody)
	span.SetAttributes(attribute.Int("response.length", len(response)))
	return response, nil
}

// decodeResponse reduces JSON object replies with ExtractResponse. Any other
// reply, including malformed JSON, falls back to the trimmed raw body.
func decodeResponse(contentType string, body []byte) string {
	raw := string(body)
	if !isJSON(contentType) {
		return strings.TrimSpace(raw)
	}

	var object map[string]any
	if err := json.Unmarshal(body, &object); err != nil {
		return strings.TrimSpace(raw)
	}
	return ExtractResponse(object, raw)
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
	return mediaType == "application/json"
}

// ExtractResponse returns the first response field holding a non-blank string,
// trimmed. Without one the trimmed fallback is returned.
func ExtractResponse(payload map[string]any, fallback string) string {
	for _, key := range responseKeys {
		if value, ok := payload[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return strings.TrimSpace(fallback)
}
