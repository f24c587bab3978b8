// Package testutil provides a scripted llm.Completer for tests.
package testutil

import (
	"context"
	"sync"

	"github.com/c360studio/ontokg/llm"
)

// MockLLMClient is a thread-safe scripted llm.Completer.
//
// Usage:
//
//	mock := &MockLLMClient{
//	    Responses: []*llm.Response{
//	        {Content: `{"entities_and_triples": []}`, Model: "test-model"},
//	    },
//	}
//
// Errors are returned in step with Responses: Errs[i], when non-nil, is
// returned by the i-th call instead of Responses[i]. Err, when set, fails
// every call.
type MockLLMClient struct {
	mu sync.Mutex

	Responses []*llm.Response
	Errs      []error
	Err       error

	requests []llm.Request
	contexts []context.Context
}

var _ llm.Completer = (*MockLLMClient)(nil)

// Complete records the request and returns the next scripted result. Once the
// script is exhausted it returns an empty response.
func (m *MockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.requests)
	m.requests = append(m.requests, req)
	m.contexts = append(m.contexts, ctx)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if idx < len(m.Errs) && m.Errs[idx] != nil {
		return nil, m.Errs[idx]
	}
	if idx < len(m.Responses) {
		resp := *m.Responses[idx]
		return &resp, nil
	}
	return &llm.Response{Content: "", Model: "test-model"}, nil
}

// Requests returns every request received so far.
func (m *MockLLMClient) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// GetCallCount returns the number of times Complete was called.
func (m *MockLLMClient) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// GetCapturedContext returns the context of the last call, or nil.
func (m *MockLLMClient) GetCapturedContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.contexts) == 0 {
		return nil
	}
	return m.contexts[len(m.contexts)-1]
}

// Reset forgets recorded calls so the script replays from the start.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.contexts = nil
}
