package model

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RegistryConfig is the serialized form of a Registry. It is embedded under
// "model" in ontokg.yaml and may also be loaded on its own.
type RegistryConfig struct {
	Capabilities map[string]*CapabilityConfig `json:"capabilities" yaml:"capabilities"`
	Endpoints    map[string]*EndpointConfig   `json:"endpoints" yaml:"endpoints"`
	Defaults     *DefaultsConfig              `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// LoadFromFile loads a registry from a YAML (or JSON) file.
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}
	return LoadFromYAML(data)
}

// LoadFromYAML parses registry configuration. JSON input is accepted since it
// is valid YAML.
func LoadFromYAML(data []byte) (*Registry, error) {
	var cfg RegistryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse registry config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return FromConfig(&cfg), nil
}

// FromConfig builds a registry from its serialized form.
func FromConfig(cfg *RegistryConfig) *Registry {
	r := NewRegistry(nil, nil)
	r.MergeFromConfig(cfg)
	return r
}

// Validate checks that every endpoint referenced by a capability or the
// defaults is defined and has a provider and model.
func (c *RegistryConfig) Validate() error {
	for name, ep := range c.Endpoints {
		if ep == nil {
			return fmt.Errorf("endpoint %q: empty definition", name)
		}
		if ep.Provider == "" {
			return fmt.Errorf("endpoint %q: provider is required", name)
		}
		if ep.Model == "" {
			return fmt.Errorf("endpoint %q: model is required", name)
		}
	}

	names := make([]string, 0, len(c.Capabilities))
	for name := range c.Capabilities {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		capCfg := c.Capabilities[name]
		if capCfg == nil {
			continue
		}
		for _, ep := range append(append([]string{}, capCfg.Preferred...), capCfg.Fallback...) {
			if _, ok := c.Endpoints[ep]; !ok {
				return fmt.Errorf("capability %q: unknown endpoint %q", name, ep)
			}
		}
	}

	if c.Defaults != nil && c.Defaults.Model != "" {
		if _, ok := c.Endpoints[c.Defaults.Model]; !ok {
			return fmt.Errorf("defaults: unknown endpoint %q", c.Defaults.Model)
		}
	}
	return nil
}

// ToConfig converts a Registry to its serialized form.
func (r *Registry) ToConfig() *RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make(map[string]*CapabilityConfig, len(r.capabilities))
	for k, v := range r.capabilities {
		caps[string(k)] = v
	}
	endpoints := make(map[string]*EndpointConfig, len(r.endpoints))
	for k, v := range r.endpoints {
		endpoints[k] = v
	}

	return &RegistryConfig{
		Capabilities: caps,
		Endpoints:    endpoints,
		Defaults:     &DefaultsConfig{Model: r.defaults.Model},
	}
}

// MergeFromConfig overlays cfg onto the registry. Entries in cfg replace
// existing entries of the same name.
func (r *Registry) MergeFromConfig(cfg *RegistryConfig) {
	if cfg == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range cfg.Capabilities {
		if v != nil {
			r.capabilities[Capability(k)] = v
		}
	}
	for k, v := range cfg.Endpoints {
		if v != nil {
			r.endpoints[k] = v
		}
	}
	if cfg.Defaults != nil && cfg.Defaults.Model != "" {
		r.defaults = &DefaultsConfig{Model: cfg.Defaults.Model}
	}
}
