package model

import (
	"sync"
	"time"
)

// CircuitState is the state of an endpoint's circuit breaker.
type CircuitState string

const (
	// CircuitClosed lets every request through.
	CircuitClosed CircuitState = "closed"

	// CircuitOpen rejects requests until the recovery timeout elapses.
	CircuitOpen CircuitState = "open"

	// CircuitHalfOpen lets a limited number of probe requests through.
	CircuitHalfOpen CircuitState = "half_open"
)

// EndpointHealth is a snapshot of an endpoint's health.
type EndpointHealth struct {
	State           CircuitState `json:"state"`
	LastSuccess     time.Time    `json:"last_success,omitempty"`
	LastFailure     time.Time    `json:"last_failure,omitempty"`
	FailureCount    int          `json:"failure_count"`
	CircuitOpenedAt time.Time    `json:"circuit_opened_at,omitempty"`
}

// Available reports whether the snapshot allows requests.
func (h EndpointHealth) Available() bool {
	return h.State != CircuitOpen
}

// HealthConfig configures the circuit breaker.
type HealthConfig struct {
	// FailureThreshold is the number of consecutive failures that open the
	// circuit.
	FailureThreshold int

	// RecoveryTimeout is how long an open circuit rejects requests.
	RecoveryTimeout time.Duration

	// HalfOpenRequests is how many probes a half-open circuit admits.
	HalfOpenRequests int
}

// DefaultHealthConfig returns the default circuit breaker settings.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		FailureThreshold: 3,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 1,
	}
}

type breaker struct {
	EndpointHealth
	probes int
}

type healthState struct {
	mu       sync.Mutex
	config   HealthConfig
	now      func() time.Time
	breakers map[string]*breaker
}

func newHealthState(cfg HealthConfig) *healthState {
	return &healthState{
		config:   cfg,
		now:      time.Now,
		breakers: make(map[string]*breaker),
	}
}

// get returns the breaker for name, moving an expired open circuit to
// half-open. Callers hold h.mu.
func (h *healthState) get(name string) *breaker {
	b, ok := h.breakers[name]
	if !ok {
		b = &breaker{EndpointHealth: EndpointHealth{State: CircuitClosed}}
		h.breakers[name] = b
	}
	if b.State == CircuitOpen && h.now().Sub(b.CircuitOpenedAt) >= h.config.RecoveryTimeout {
		b.State = CircuitHalfOpen
		b.probes = 0
	}
	return b
}

// MarkEndpointSuccess closes the circuit and resets the failure count.
func (r *Registry) MarkEndpointSuccess(name string) {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.get(name)
	b.State = CircuitClosed
	b.FailureCount = 0
	b.probes = 0
	b.LastSuccess = h.now()
}

// MarkEndpointFailure records a failure. The circuit opens once the failure
// threshold is reached, and immediately when a half-open probe fails.
func (r *Registry) MarkEndpointFailure(name string) {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.get(name)
	now := h.now()
	b.LastFailure = now
	b.FailureCount++

	if b.State == CircuitHalfOpen || b.FailureCount >= h.config.FailureThreshold {
		b.State = CircuitOpen
		b.CircuitOpenedAt = now
	}
}

// IsEndpointAvailable reports whether a request may be sent to name. In the
// half-open state each call consumes one probe.
func (r *Registry) IsEndpointAvailable(name string) bool {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.breakers[name]; !ok {
		return true
	}

	b := h.get(name)
	switch b.State {
	case CircuitOpen:
		return false
	case CircuitHalfOpen:
		if b.probes >= max(h.config.HalfOpenRequests, 1) {
			return false
		}
		b.probes++
		return true
	default:
		return true
	}
}

// GetEndpointHealth returns a snapshot for name, or nil when nothing has been
// recorded.
func (r *Registry) GetEndpointHealth(name string) *EndpointHealth {
	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.breakers[name]; !ok {
		return nil
	}
	snapshot := h.get(name).EndpointHealth
	return &snapshot
}

// GetAvailableFallbackChain returns the chain for c without endpoints whose
// circuit is open. When every endpoint is open the full chain is returned.
func (r *Registry) GetAvailableFallbackChain(c Capability) []string {
	chain := r.GetFallbackChain(c)

	h := r.health
	h.mu.Lock()
	defer h.mu.Unlock()

	available := make([]string, 0, len(chain))
	for _, name := range chain {
		if _, ok := h.breakers[name]; ok && h.get(name).State == CircuitOpen {
			continue
		}
		available = append(available, name)
	}

	if len(available) == 0 {
		return chain
	}
	return available
}

// SetHealthConfig replaces the circuit breaker settings.
func (r *Registry) SetHealthConfig(cfg HealthConfig) {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	r.health.config = cfg
}

// ResetEndpointHealth forgets everything recorded for name.
func (r *Registry) ResetEndpointHealth(name string) {
	r.health.mu.Lock()
	defer r.health.mu.Unlock()

	delete(r.health.breakers, name)
}
