package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// CommandFlags holds the output flags shared by commands that print data.
type CommandFlags struct {
	// OutputFormat specifies the desired output format
	OutputFormat string
	// NoHeaders suppresses the header row in table output
	NoHeaders bool
	// Pretty indents JSON output
	Pretty bool
}

// RegisterOutputFlag registers --output/-o.
func RegisterOutputFlag(cmd *cobra.Command, flags *CommandFlags, defaultFormat OutputFormat, formats []OutputFormat) {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f))
	}
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", string(defaultFormat),
		"Output format ("+strings.Join(names, ", ")+")")
}

// RegisterNoHeadersFlag registers --no-headers.
func RegisterNoHeadersFlag(cmd *cobra.Command, flags *CommandFlags) {
	cmd.Flags().BoolVar(&flags.NoHeaders, "no-headers", false, "Suppress header row in table output")
}

// RegisterPrettyFlag registers --pretty.
func RegisterPrettyFlag(cmd *cobra.Command, flags *CommandFlags) {
	cmd.Flags().BoolVar(&flags.Pretty, "pretty", false, "Indent JSON output")
}

// Format validates the output flag against formats.
func (f *CommandFlags) Format(formats []OutputFormat) (OutputFormat, error) {
	return ValidateOutputFormat(f.OutputFormat, formats)
}
