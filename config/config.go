// Package config provides configuration loading and management for ontokg.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c360studio/ontokg/export"
	"github.com/c360studio/ontokg/model"
	"github.com/c360studio/ontokg/ontology"
	"github.com/c360studio/ontokg/source"
	"github.com/c360studio/ontokg/source/chunker"
	"gopkg.in/yaml.v3"
)

// Config represents the complete ontokg configuration
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Ontologies []string         `yaml:"ontologies,omitempty"`
	Inspector  InspectorConfig  `yaml:"inspector"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Export     ExportConfig     `yaml:"export"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ModelConfig configures the LLM endpoints and request behaviour. The
// capabilities, endpoints and defaults keys overlay the built-in registry.
type ModelConfig struct {
	model.RegistryConfig `yaml:",inline"`

	// Timeout bounds a single HTTP request to an endpoint.
	Timeout time.Duration `yaml:"timeout"`

	// MaxAttempts is the number of tries per endpoint before falling back.
	MaxAttempts int `yaml:"max_attempts"`
}

// InspectorConfig mirrors the ontology inspector options.
type InspectorConfig struct {
	ByLocalName       bool   `yaml:"by_local_name"`
	IncludeBlankNodes bool   `yaml:"include_blank_nodes"`
	ClassPredicate    string `yaml:"class_predicate,omitempty"`
}

// ExtractionConfig configures the triplet extractor.
type ExtractionConfig struct {
	// Capability selects the model chain (default: extraction).
	Capability string `yaml:"capability"`

	// MaxTokens limits each model response; 0 uses the endpoint default.
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// SkipMalformed continues past chunks whose response cannot be parsed.
	SkipMalformed bool `yaml:"skip_malformed"`

	// Chunk sizes the pieces of text sent per call.
	Chunk chunker.Config `yaml:"chunk"`
}

// ExportConfig configures RDF output of extracted triplets.
type ExportConfig struct {
	Format    string `yaml:"format"`
	Profile   string `yaml:"profile"`
	Namespace string `yaml:"namespace,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the server.
	Addr string `yaml:"addr,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Timeout:     3 * time.Minute,
			MaxAttempts: 3,
		},
		Extraction: ExtractionConfig{
			Capability: model.CapabilityExtraction.String(),
			Chunk:      chunker.DefaultConfig(),
		},
		Export: ExportConfig{
			Format:  string(export.FormatTurtle),
			Profile: string(export.ProfileProvenance),
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Model.Timeout < 0 {
		return fmt.Errorf("model.timeout must not be negative")
	}
	if c.Model.MaxAttempts < 0 {
		return fmt.Errorf("model.max_attempts must not be negative")
	}
	if _, err := c.Registry(); err != nil {
		return err
	}

	switch c.Inspector.ClassPredicate {
	case "", "rdf", "rdfs", "owl":
	default:
		return fmt.Errorf("inspector.class_predicate must be rdf, rdfs or owl, got %q", c.Inspector.ClassPredicate)
	}

	if c.Extraction.MaxTokens < 0 {
		return fmt.Errorf("extraction.max_tokens must not be negative")
	}
	if err := c.Extraction.Chunk.Validate(); err != nil {
		return fmt.Errorf("extraction.chunk: %w", err)
	}

	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
	}
	if _, err := export.ParseProfile(c.Export.Profile); err != nil {
		return fmt.Errorf("export.profile: %w", err)
	}
	return nil
}

// Registry builds the model registry: the built-in endpoints overlaid with
// the configured ones. The merged result must be consistent.
func (c *Config) Registry() (*model.Registry, error) {
	r := model.NewDefaultRegistry()
	r.MergeFromConfig(&c.Model.RegistryConfig)
	if err := r.ToConfig().Validate(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	return r, nil
}

// InspectorOptions converts the inspector section to ontology options.
func (c *Config) InspectorOptions() []ontology.Option {
	opts := []ontology.Option{
		ontology.WithByLocalName(c.Inspector.ByLocalName),
		ontology.WithBlankNodes(c.Inspector.IncludeBlankNodes),
	}
	if c.Inspector.ClassPredicate != "" {
		opts = append(opts, ontology.WithClassPredicate(c.Inspector.ClassPredicate))
	}
	return opts
}

// LoadFromFile loads configuration from a YAML file. Relative ontology
// paths are resolved against the file's directory.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	base := filepath.Dir(path)
	for i, l := range config.Ontologies {
		if !source.IsURL(l) && !filepath.IsAbs(l) {
			config.Ontologies[i] = filepath.Join(base, l)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Boolean switches can only be turned on by a merge.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Model
	c.mergeRegistry(&other.Model.RegistryConfig)
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}
	if other.Model.MaxAttempts != 0 {
		c.Model.MaxAttempts = other.Model.MaxAttempts
	}

	// Ontologies replace rather than accumulate.
	if len(other.Ontologies) > 0 {
		c.Ontologies = append([]string(nil), other.Ontologies...)
	}

	// Inspector
	c.Inspector.ByLocalName = c.Inspector.ByLocalName || other.Inspector.ByLocalName
	c.Inspector.IncludeBlankNodes = c.Inspector.IncludeBlankNodes || other.Inspector.IncludeBlankNodes
	if other.Inspector.ClassPredicate != "" {
		c.Inspector.ClassPredicate = other.Inspector.ClassPredicate
	}

	// Extraction
	if other.Extraction.Capability != "" {
		c.Extraction.Capability = other.Extraction.Capability
	}
	if other.Extraction.MaxTokens != 0 {
		c.Extraction.MaxTokens = other.Extraction.MaxTokens
	}
	c.Extraction.SkipMalformed = c.Extraction.SkipMalformed || other.Extraction.SkipMalformed
	if other.Extraction.Chunk.TargetTokens != 0 {
		c.Extraction.Chunk.TargetTokens = other.Extraction.Chunk.TargetTokens
	}
	if other.Extraction.Chunk.MaxTokens != 0 {
		c.Extraction.Chunk.MaxTokens = other.Extraction.Chunk.MaxTokens
	}
	if other.Extraction.Chunk.MinTokens != 0 {
		c.Extraction.Chunk.MinTokens = other.Extraction.Chunk.MinTokens
	}

	// Export
	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}
	if other.Export.Profile != "" {
		c.Export.Profile = other.Export.Profile
	}
	if other.Export.Namespace != "" {
		c.Export.Namespace = other.Export.Namespace
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}

// mergeRegistry overlays registry entries by name.
func (c *Config) mergeRegistry(other *model.RegistryConfig) {
	if len(other.Capabilities) > 0 && c.Model.Capabilities == nil {
		c.Model.Capabilities = make(map[string]*model.CapabilityConfig)
	}
	for k, v := range other.Capabilities {
		c.Model.Capabilities[k] = v
	}

	if len(other.Endpoints) > 0 && c.Model.Endpoints == nil {
		c.Model.Endpoints = make(map[string]*model.EndpointConfig)
	}
	for k, v := range other.Endpoints {
		c.Model.Endpoints[k] = v
	}

	if other.Defaults != nil && other.Defaults.Model != "" {
		c.Model.Defaults = &model.DefaultsConfig{Model: other.Defaults.Model}
	}
}
