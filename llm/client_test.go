package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/c360studio/ontokg/llm"
	_ "github.com/c360studio/ontokg/llm/providers" // Register providers
	"github.com/c360studio/ontokg/metrics"
	"github.com/c360studio/ontokg/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps retry tests quick.
var fastRetry = llm.RetryConfig{
	MaxAttempts:       3,
	BackoffBase:       time.Millisecond,
	BackoffMultiplier: 2,
	MaxBackoff:        5 * time.Millisecond,
}

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"model": "test-model",
		"choices": []map[string]any{
			{
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func registryFor(urls ...string) *model.Registry {
	endpoints := make(map[string]*model.EndpointConfig, len(urls))
	names := make([]string, len(urls))
	for i, u := range urls {
		name := []string{"primary", "secondary", "tertiary"}[i]
		names[i] = name
		endpoints[name] = &model.EndpointConfig{Provider: "ollama", URL: u, Model: name + "-model"}
	}
	return model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityExtraction: {Preferred: names[:1], Fallback: names[1:]},
		},
		endpoints,
	)
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "primary-model", body["model"])
		assert.Equal(t, 0.0, body["temperature"])
		assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

		writeJSON(w, chatCompletion(`{"entities_and_triples": []}`))
	}))
	defer server.Close()

	m := metrics.NewRegistry()
	client := llm.NewClient(registryFor(server.URL), llm.WithMetrics(m))

	resp, err := client.Complete(context.Background(), llm.Request{
		Messages:    []llm.Message{{Role: "user", Content: "Hello"}},
		Temperature: llm.Float64(0),
		JSON:        true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"entities_and_triples": []}`, resp.Content)
	assert.Equal(t, "primary", resp.Endpoint)
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
	assert.NotEmpty(t, resp.RequestID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("ollama", "primary", "success")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.LLMTokensTotal.WithLabelValues("primary", "prompt")))
}

func TestClient_Complete_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, chatCompletion("ok"))
	}))
	defer server.Close()

	m := metrics.NewRegistry()
	client := llm.NewClient(registryFor(server.URL), llm.WithRetryConfig(fastRetry), llm.WithMetrics(m))

	resp, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LLMRetriesTotal.WithLabelValues("primary")))
}

func TestClient_Complete_FallsBack(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, chatCompletion("from fallback"))
	}))
	defer healthy.Close()

	registry := registryFor(failing.URL, healthy.URL)
	client := llm.NewClient(registry, llm.WithRetryConfig(fastRetry))

	resp, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "from fallback", resp.Content)
	assert.Equal(t, "secondary", resp.Endpoint)
	assert.Equal(t, 4, resp.Attempts)

	health := registry.GetEndpointHealth("primary")
	require.NotNil(t, health)
	assert.Equal(t, 1, health.FailureCount)
}

func TestClient_Complete_FatalErrorStopsFallback(t *testing.T) {
	var fallbackCalls atomic.Int32
	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "bad key"}`))
	}))
	defer unauthorized.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackCalls.Add(1)
		writeJSON(w, chatCompletion("unreachable"))
	}))
	defer fallback.Close()

	client := llm.NewClient(registryFor(unauthorized.URL, fallback.URL), llm.WithRetryConfig(fastRetry))

	_, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))

	var apiErr *llm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad key")
	assert.Zero(t, fallbackCalls.Load())
}

func TestClient_Complete_AllEndpointsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := llm.NewClient(registryFor(server.URL, server.URL), llm.WithRetryConfig(fastRetry))

	_, err := client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	require.Error(t, err)
	assert.True(t, llm.IsTransient(err))
	assert.Contains(t, err.Error(), "all endpoints failed")
}

func TestClient_Complete_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	slow := llm.RetryConfig{MaxAttempts: 5, BackoffBase: time.Hour, BackoffMultiplier: 1, MaxBackoff: time.Hour}
	client := llm.NewClient(registryFor(server.URL), llm.WithRetryConfig(slow))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Complete(ctx, llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_Complete_Validation(t *testing.T) {
	client := llm.NewClient(model.NewRegistry(nil, nil))

	_, err := client.Complete(context.Background(), llm.Request{})
	assert.ErrorIs(t, err, llm.ErrInvalidRequest)
	assert.True(t, llm.IsFatal(err))

	_, err = client.Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})
	assert.ErrorIs(t, err, llm.ErrNoEndpoints)
}

func TestClient_Complete_UnknownProvider(t *testing.T) {
	registry := model.NewRegistry(
		map[model.Capability]*model.CapabilityConfig{
			model.CapabilityExtraction: {Preferred: []string{"x"}},
		},
		map[string]*model.EndpointConfig{
			"x": {Provider: "carrier-pigeon", Model: "coo"},
		},
	)

	_, err := llm.NewClient(registry).Complete(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: "user", Content: "Hello"}},
	})
	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestErrorClassification(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, llm.IsTransient(llm.NewTransientError(base)))
	assert.False(t, llm.IsFatal(llm.NewTransientError(base)))
	assert.True(t, llm.IsFatal(llm.NewFatalError(base)))
	assert.ErrorIs(t, llm.NewFatalError(base), base)
	assert.False(t, llm.IsTransient(base))
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := llm.RetryConfig{
		BackoffBase:       time.Second,
		BackoffMultiplier: 2,
		MaxBackoff:        5 * time.Second,
	}

	assert.Equal(t, time.Second, cfg.Backoff(1))
	assert.Equal(t, 2*time.Second, cfg.Backoff(2))
	assert.Equal(t, 4*time.Second, cfg.Backoff(3))
	assert.Equal(t, 5*time.Second, cfg.Backoff(4))
	assert.Equal(t, 5*time.Second, cfg.Backoff(40))

	cfg.Jitter = 0.25
	for range 50 {
		d := cfg.Backoff(2)
		assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
		assert.LessOrEqual(t, d, 2500*time.Millisecond)
	}
}

func TestListProviders(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "ollama", "openai"}, llm.ListProviders())
}
