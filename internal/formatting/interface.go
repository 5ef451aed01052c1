// Package formatting renders client records and identity claims for the
// ssc command line in table, JSON or YAML form.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"

	"ssc/internal/keycloak"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Writer io.Writer
	// ShowSecrets prints client secrets in tables instead of masking them.
	ShowSecrets bool
}

// Formatter renders ssc resources.
type Formatter interface {
	FormatClients(clients []keycloak.ClientRecord) error
	FormatClient(client *keycloak.ClientRecord) error

	// FormatData renders any other value, such as identity claims.
	FormatData(data map[string]any) error
}

// NewFormatter creates the formatter for options.Format.
func NewFormatter(options Options) Formatter {
	if options.Writer == nil {
		options.Writer = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
