package model

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestNewDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()

	caps := r.ListCapabilities()
	if !slices.Equal(caps, []Capability{CapabilityExtraction, CapabilityFast}) {
		t.Errorf("ListCapabilities() = %v", caps)
	}

	endpoints := r.ListEndpoints()
	if !slices.Equal(endpoints, []string{"qwen", "triplex"}) {
		t.Errorf("ListEndpoints() = %v", endpoints)
	}

	ep := r.GetEndpoint("triplex")
	if ep == nil || ep.Provider != "ollama" {
		t.Fatalf("GetEndpoint(triplex) = %+v", ep)
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		capability Capability
		expected   string
	}{
		{CapabilityExtraction, "triplex"},
		{CapabilityFast, "qwen"},
		{Capability("unknown"), "triplex"}, // Falls back to default
	}

	for _, tt := range tests {
		t.Run(string(tt.capability), func(t *testing.T) {
			if got := r.Resolve(tt.capability); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.capability, got, tt.expected)
			}
		})
	}
}

func TestRegistryGetFallbackChain(t *testing.T) {
	r := NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityExtraction: {Preferred: []string{"a", "b"}, Fallback: []string{"b", "c"}},
		},
		nil,
	)

	chain := r.GetFallbackChain(CapabilityExtraction)
	if !slices.Equal(chain, []string{"a", "b", "c"}) {
		t.Errorf("chain = %v, want [a b c]", chain)
	}

	r.SetDefault("a")
	if chain := r.GetFallbackChain(CapabilityFast); !slices.Equal(chain, []string{"a"}) {
		t.Errorf("unknown capability chain = %v, want [a]", chain)
	}
}

func TestParseCapability(t *testing.T) {
	if got := ParseCapability("extraction"); got != CapabilityExtraction {
		t.Errorf("ParseCapability(extraction) = %q", got)
	}
	if got := ParseCapability("planning"); got != "" {
		t.Errorf("ParseCapability(planning) = %q, want empty", got)
	}
}

func TestRegistrySetters(t *testing.T) {
	r := NewRegistry(nil, nil)

	r.SetEndpoint("local", &EndpointConfig{Provider: "ollama", Model: "llama3.2"})
	r.SetCapability(CapabilityFast, &CapabilityConfig{Preferred: []string{"local"}})

	if got := r.Resolve(CapabilityFast); got != "local" {
		t.Errorf("Resolve(fast) = %q, want local", got)
	}
	if r.GetEndpoint("missing") != nil {
		t.Error("expected nil endpoint for unknown name")
	}
}

func TestRegistryMarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewDefaultRegistry())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var cfg RegistryConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.Defaults == nil || cfg.Defaults.Model != "triplex" {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if _, ok := cfg.Endpoints["qwen"]; !ok {
		t.Error("expected qwen endpoint in serialized registry")
	}
}
