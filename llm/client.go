// Package llm provides a provider-agnostic LLM client with retry and fallback
// support. Endpoints are selected through a model.Registry by capability.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/c360studio/ontokg/metrics"
	"github.com/c360studio/ontokg/model"
	"github.com/google/uuid"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Completer is anything that can answer a completion request. *Client
// implements it, as does testutil.MockLLMClient.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Client is a provider-agnostic LLM client with retry and fallback support.
// It is safe for concurrent use.
type Client struct {
	registry    *model.Registry
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *slog.Logger
	metrics     *metrics.Registry
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // Message content
}

// Request defines an LLM completion request.
type Request struct {
	// Capability selects the endpoint chain. Empty means extraction.
	Capability string

	// Messages is the chat history to send to the LLM.
	Messages []Message

	// Temperature controls randomness. nil uses endpoint default, 0 is deterministic.
	Temperature *float64

	// MaxTokens limits response length. 0 uses endpoint default.
	MaxTokens int

	// JSON asks providers that support it to constrain output to a JSON object.
	JSON bool
}

// TokenUsage represents token consumption details for an LLM call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the LLM completion result.
type Response struct {
	// RequestID uniquely identifies the Complete call.
	RequestID string

	// Content is the generated text.
	Content string

	// Model is the model the provider reports having used.
	Model string

	// Endpoint is the registry name of the endpoint that answered.
	Endpoint string

	// Usage contains provider-reported token consumption.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Attempts counts HTTP requests made across all endpoints.
	Attempts int
}

// Float64 returns a pointer to v, for Request.Temperature.
func Float64(v float64) *float64 {
	return &v
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithMetrics records request, retry, fallback and token metrics.
func WithMetrics(m *metrics.Registry) ClientOption {
	return func(client *Client) {
		client.metrics = m
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		if d > 0 {
			client.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a new LLM client with the given model registry.
func NewClient(registry *model.Registry, opts ...ClientOption) *Client {
	c := &Client{
		registry:    registry,
		retryConfig: DefaultRetryConfig(),
		httpClient: &http.Client{
			Timeout: 180 * time.Second, // Allow time for LLM responses
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Complete sends a completion request. Each endpoint in the capability's
// chain is retried on transient errors with exponential backoff; once its
// attempts are exhausted the next endpoint is tried. Fatal errors and context
// cancellation end the call immediately.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, NewFatalError(fmt.Errorf("%w: at least one message is required", ErrInvalidRequest))
	}

	capability := model.Capability(req.Capability)
	if capability == "" {
		capability = model.CapabilityExtraction
	}

	requestID := uuid.New().String()
	chain := c.registry.GetAvailableFallbackChain(capability)

	var (
		lastErr  error
		attempts int
	)

	for _, name := range chain {
		endpoint := c.registry.GetEndpoint(name)
		if endpoint == nil {
			c.logger.Debug("No endpoint for model, skipping", "model", name)
			continue
		}
		if !c.registry.IsEndpointAvailable(name) {
			c.logger.Debug("Endpoint circuit open, skipping", "model", name)
			continue
		}

		resp, n, err := c.tryEndpoint(ctx, name, endpoint, req)
		attempts += n
		if err == nil {
			resp.RequestID = requestID
			resp.Endpoint = name
			resp.Attempts = attempts
			c.metrics.RecordLLMTokens(name, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

			c.logger.Debug("LLM request completed",
				"request_id", requestID,
				"capability", capability,
				"model", name,
				"attempts", attempts,
				"total_tokens", resp.Usage.TotalTokens)
			return resp, nil
		}

		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if IsFatal(err) {
			c.logger.Warn("Fatal error, not trying fallbacks",
				"request_id", requestID,
				"model", name,
				"error", err)
			return nil, err
		}

		c.metrics.RecordLLMFallback(name)
		c.logger.Warn("Endpoint failed, trying fallback",
			"request_id", requestID,
			"model", name,
			"provider", endpoint.Provider,
			"error", err)
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w for capability %s", ErrNoEndpoints, capability)
	}
	return nil, fmt.Errorf("all endpoints failed for capability %s: %w", capability, lastErr)
}

// tryEndpoint attempts a request with retry logic and returns the number of
// attempts made.
func (c *Client) tryEndpoint(ctx context.Context, name string, ep *model.EndpointConfig, req Request) (*Response, int, error) {
	var lastErr error
	maxAttempts := c.retryConfig.attempts()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.doRequest(ctx, ep, req)
		c.metrics.RecordLLMRequest(ep.Provider, name, errorStatus(err), time.Since(start))

		if err == nil {
			c.registry.MarkEndpointSuccess(name)
			return resp, attempt, nil
		}
		lastErr = err

		// Fatal errors point at configuration, not endpoint health.
		if IsFatal(err) || ctx.Err() != nil {
			return nil, attempt, err
		}

		if attempt < maxAttempts {
			backoff := c.retryConfig.Backoff(attempt)
			c.logger.Debug("Request failed, retrying",
				"model", name,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"backoff", backoff,
				"error", err)
			c.metrics.RecordLLMRetry(name)

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, attempt, ctx.Err()
			case <-timer.C:
			}
		}
	}

	c.registry.MarkEndpointFailure(name)
	return nil, maxAttempts, lastErr
}

// doRequest executes a single HTTP request to the LLM endpoint.
func (c *Client) doRequest(ctx context.Context, ep *model.EndpointConfig, req Request) (*Response, error) {
	provider := GetProvider(ep.Provider)
	if provider == nil {
		return nil, NewFatalError(fmt.Errorf("unknown provider: %s", ep.Provider))
	}

	url := provider.BuildURL(ep.URL)
	body, err := provider.BuildRequestBody(ep.Model, req)
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("build request body: %w", err))
	}

	c.logger.Debug("Sending LLM request",
		"provider", ep.Provider,
		"model", ep.Model,
		"url", url,
		"messages", len(req.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewFatalError(fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	provider.SetHeaders(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, NewTransientError(fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransientError(fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(httpResp.StatusCode, respBody)
	}

	resp, err := provider.ParseResponse(respBody)
	if err != nil {
		// Unparseable bodies are retried like network errors.
		return nil, NewTransientError(err)
	}
	return resp, nil
}
