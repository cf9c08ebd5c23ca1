// Package output renders fixture sets and resource listings as a table,
// YAML or JSON.
package output

import (
	"fmt"

	"github.com/jbweber/testbed/api/v1alpha1"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format, loadable again as a manifest.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats harness results for output.
type Formatter interface {
	// FormatSet formats a FixtureSet together with its observed status.
	FormatSet(fs *v1alpha1.FixtureSet) (string, error)

	// FormatResources formats a flat list of resource statuses, as
	// produced by list and sweep.
	FormatResources(resources []v1alpha1.ResourceStatus) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}
