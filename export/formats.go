// Package export renders consistency decision reports in multiple output formats.
package export

import (
	"fmt"
	"sort"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatText produces a human-readable plain text report.
	FormatText Format = "text"

	// FormatJSON produces indented JSON output.
	FormatJSON Format = "json"

	// FormatYAML produces YAML output.
	FormatYAML Format = "yaml"
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
	FormatText: {
		Name:        FormatText,
		MIMEType:    "text/plain; charset=utf-8",
		Extension:   ".txt",
		Description: "Human-readable consistency report",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Indented JSON report",
	},
	FormatYAML: {
		Name:        FormatYAML,
		MIMEType:    "application/yaml",
		Extension:   ".yaml",
		Description: "YAML report",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat validates a format name from user input.
func ParseFormat(name string) (Format, error) {
	format := Format(name)
	if _, ok := FormatRegistry[format]; !ok {
		return "", fmt.Errorf("unsupported format: %s (supported: %v)", name, FormatNames())
	}
	return format, nil
}

// FormatNames returns the supported format names in sorted order.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for format := range FormatRegistry {
		names = append(names, string(format))
	}
	sort.Strings(names)
	return names
}
