// Package model resolves semantic capabilities to LLM endpoints.
// Callers ask for "extraction" rather than a model name; the registry maps the
// capability to an ordered chain of endpoints and tracks endpoint health.
package model

// Capability names what a request needs from a model.
type Capability string

const (
	// CapabilityExtraction is entity and triplet extraction from text.
	// Models tuned for it (Triplex and similar) are preferred.
	CapabilityExtraction Capability = "extraction"

	// CapabilityFast is for quick, cheap responses such as connectivity checks.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityExtraction, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for
// unknown values.
func ParseCapability(s string) Capability {
	c := Capability(s)
	if c.IsValid() {
		return c
	}
	return ""
}
