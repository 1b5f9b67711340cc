package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable formats output as a kubectl-style plain table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatWide formats output as a boxed table with additional columns
	OutputFormatWide OutputFormat = "wide"
	// OutputFormatJSON formats output as JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML
	OutputFormatYAML OutputFormat = "yaml"
)

// NodeOutputFormats are the formats accepted by "nodes".
var NodeOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatWide,
	OutputFormatJSON,
	OutputFormatYAML,
}

// InventoryOutputFormats are the formats accepted by "inventory".
var InventoryOutputFormats = []OutputFormat{
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat checks format against the allowed formats.
func ValidateOutputFormat(format string, allowed []OutputFormat) (OutputFormat, error) {
	names := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if OutputFormat(format) == a {
			return a, nil
		}
		names = append(names, string(a))
	}
	return "", fmt.Errorf("unsupported output format %q (valid formats: %s)", format, strings.Join(names, ", "))
}

// WriteJSON writes v as JSON followed by a newline.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteYAML writes v as YAML. v is encoded through its JSON form, so JSON
// struct tags and MarshalJSON methods apply.
func WriteYAML(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to convert to YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}
