package export

import (
	"fmt"
	"slices"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"

	// FormatJSONLD produces JSON-LD (.jsonld) output.
	FormatJSONLD Format = "jsonld"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
	FormatJSONLD: {
		Name:        FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD - JSON for Linked Data",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ListFormats returns the supported format names, sorted.
func ListFormats() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	slices.Sort(names)
	return names
}

// ParseFormat resolves a format name or file extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch s {
	case "turtle", "ttl":
		return FormatTurtle, nil
	case "ntriples", "n-triples", "nt":
		return FormatNTriples, nil
	case "jsonld", "json-ld":
		return FormatJSONLD, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want one of %s)", s, strings.Join(ListFormats(), ", "))
	}
}

// Profile determines how much provenance accompanies the exported triplets.
type Profile string

const (
	// ProfileMinimal exports entities, their types and values, and the
	// extracted relations.
	ProfileMinimal Profile = "minimal"

	// ProfileProvenance adds a prov:Activity for the extraction run, links
	// each entity to it and records source chunk indexes.
	ProfileProvenance Profile = "prov"
)

// ProfileConfig contains configuration for an export profile.
type ProfileConfig struct {
	// Name is the profile identifier.
	Name Profile

	// Description describes the profile.
	Description string

	// IncludeRun emits the extraction run activity.
	IncludeRun bool

	// IncludeChunks records the chunk index of each entity.
	IncludeChunks bool
}

// Profiles contains the configuration for all available export profiles.
var Profiles = map[Profile]ProfileConfig{
	ProfileMinimal: {
		Name:        ProfileMinimal,
		Description: "Entities, types, values and relations only",
	},
	ProfileProvenance: {
		Name:          ProfileProvenance,
		Description:   "Minimal profile plus PROV-O run activity and chunk indexes",
		IncludeRun:    true,
		IncludeChunks: true,
	},
}

// GetProfile returns the configuration for a profile. Unknown profiles
// resolve to ProfileMinimal.
func GetProfile(p Profile) ProfileConfig {
	if cfg, ok := Profiles[p]; ok {
		return cfg
	}
	return Profiles[ProfileMinimal]
}

// ParseProfile resolves a profile name. The empty string selects
// ProfileProvenance.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProfileProvenance, nil
	case ProfileMinimal, ProfileProvenance:
		return p, nil
	default:
		return "", fmt.Errorf("unknown export profile: %s", s)
	}
}
