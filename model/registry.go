package model

import (
	"encoding/json"
	"slices"
	"sync"
)

// Registry maps capabilities to endpoint chains and tracks endpoint health.
// It is safe for concurrent use.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[Capability]*CapabilityConfig
	endpoints    map[string]*EndpointConfig
	defaults     *DefaultsConfig
	health       *healthState
}

// CapabilityConfig defines model preferences for a capability.
type CapabilityConfig struct {
	// Description explains what this capability is for.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Preferred lists endpoint names in order of preference.
	Preferred []string `json:"preferred" yaml:"preferred"`

	// Fallback lists endpoints tried after every preferred one failed.
	Fallback []string `json:"fallback,omitempty" yaml:"fallback,omitempty"`
}

// EndpointConfig defines an available model endpoint.
type EndpointConfig struct {
	// Provider is the wire protocol: ollama, openai or anthropic.
	Provider string `json:"provider" yaml:"provider"`

	// URL is the API base URL. Empty uses the provider default.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Model is the model identifier sent to the provider.
	Model string `json:"model" yaml:"model"`

	// MaxTokens is the context window size.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// DefaultsConfig holds default model settings.
type DefaultsConfig struct {
	// Model is the endpoint used when no capability matches.
	Model string `json:"model" yaml:"model"`
}

// NewRegistry creates a registry from explicit capability and endpoint maps.
func NewRegistry(caps map[Capability]*CapabilityConfig, endpoints map[string]*EndpointConfig) *Registry {
	if caps == nil {
		caps = make(map[Capability]*CapabilityConfig)
	}
	if endpoints == nil {
		endpoints = make(map[string]*EndpointConfig)
	}
	return &Registry{
		capabilities: caps,
		endpoints:    endpoints,
		defaults:     &DefaultsConfig{Model: "default"},
		health:       newHealthState(DefaultHealthConfig()),
	}
}

// NewDefaultRegistry creates a registry pointing at a local Ollama with the
// Triplex extraction model, falling back to a general purpose local model.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityExtraction: {
				Description: "Named entity recognition and triplet extraction",
				Preferred:   []string{"triplex"},
				Fallback:    []string{"qwen"},
			},
			CapabilityFast: {
				Description: "Quick responses, connectivity checks",
				Preferred:   []string{"qwen"},
			},
		},
		map[string]*EndpointConfig{
			"triplex": {
				Provider:  "ollama",
				URL:       "http://127.0.0.1:11434/v1",
				Model:     "hf.co/bartowski/Triplex-GGUF:F32",
				MaxTokens: 128000,
			},
			"qwen": {
				Provider:  "ollama",
				URL:       "http://127.0.0.1:11434/v1",
				Model:     "qwen2.5:7b",
				MaxTokens: 32768,
			},
		},
	)
	r.defaults.Model = "triplex"
	return r
}

// Resolve returns the first preferred endpoint for a capability, or the
// default endpoint.
func (r *Registry) Resolve(c Capability) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cfg, ok := r.capabilities[c]; ok && len(cfg.Preferred) > 0 {
		return cfg.Preferred[0]
	}
	return r.defaults.Model
}

// GetFallbackChain returns every endpoint for a capability in order,
// preferred first. Unknown capabilities get the default endpoint.
func (r *Registry) GetFallbackChain(c Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.capabilities[c]
	if !ok {
		return []string{r.defaults.Model}
	}

	chain := make([]string, 0, len(cfg.Preferred)+len(cfg.Fallback))
	for _, name := range slices.Concat(cfg.Preferred, cfg.Fallback) {
		if !slices.Contains(chain, name) {
			chain = append(chain, name)
		}
	}
	return chain
}

// GetEndpoint returns the endpoint configuration for a name, or nil.
func (r *Registry) GetEndpoint(name string) *EndpointConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.endpoints[name]
}

// SetCapability updates or adds a capability configuration.
func (r *Registry) SetCapability(c Capability, cfg *CapabilityConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.capabilities[c] = cfg
}

// SetEndpoint updates or adds an endpoint configuration.
func (r *Registry) SetEndpoint(name string, cfg *EndpointConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.endpoints[name] = cfg
}

// SetDefault sets the default endpoint.
func (r *Registry) SetDefault(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaults = &DefaultsConfig{Model: name}
}

// ListCapabilities returns all configured capabilities, sorted.
func (r *Registry) ListCapabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]Capability, 0, len(r.capabilities))
	for c := range r.capabilities {
		caps = append(caps, c)
	}
	slices.Sort(caps)
	return caps
}

// ListEndpoints returns all configured endpoint names, sorted.
func (r *Registry) ListEndpoints() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MarshalJSON implements json.Marshaler for the registry.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToConfig())
}
