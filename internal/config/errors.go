package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is a single problem with one option.
type ConfigurationError struct {
	Option      string   `json:"option"`      // Option the error is about (tailnet, client_id, ...)
	Source      Source   `json:"source"`      // Layer the offending value came from
	Path        string   `json:"path"`        // Inventory file, when Source is file
	Message     string   `json:"message"`     // Human-readable error message
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
}

// Error implements the error interface
func (ce ConfigurationError) Error() string {
	if ce.Option == "" {
		return fmt.Sprintf("[%s] %s", ce.Source, ce.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", ce.Source, ce.Option, ce.Message)
}

// DetailedError returns a detailed error message with all context
func (ce ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration error in option %q", ce.Option))
	parts = append(parts, fmt.Sprintf("  Source: %s", ce.Source))
	if ce.Path != "" {
		parts = append(parts, fmt.Sprintf("  File: %s", ce.Path))
	}
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

// ConfigurationErrorCollection holds multiple configuration errors
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError `json:"errors"`
}

// Error implements the error interface for the collection
func (cec ConfigurationErrorCollection) Error() string {
	if len(cec.Errors) == 0 {
		return "no configuration errors"
	}

	if len(cec.Errors) == 1 {
		return cec.Errors[0].Error()
	}

	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(cec.Errors), cec.Errors[0].Error(), len(cec.Errors)-1)
}

// HasErrors returns true if there are any errors in the collection
func (cec *ConfigurationErrorCollection) HasErrors() bool {
	return len(cec.Errors) > 0
}

// Count returns the number of errors in the collection
func (cec *ConfigurationErrorCollection) Count() int {
	return len(cec.Errors)
}

// Add adds a new error to the collection
func (cec *ConfigurationErrorCollection) Add(err ConfigurationError) {
	cec.Errors = append(cec.Errors, err)
}

// AddError adds a basic error to the collection
func (cec *ConfigurationErrorCollection) AddError(option string, source Source, message string, suggestions ...string) {
	cec.Add(ConfigurationError{
		Option:      option,
		Source:      source,
		Message:     message,
		Suggestions: suggestions,
	})
}

// ForOption returns the errors about one option.
func (cec *ConfigurationErrorCollection) ForOption(option string) []ConfigurationError {
	var filtered []ConfigurationError
	for _, err := range cec.Errors {
		if err.Option == option {
			filtered = append(filtered, err)
		}
	}
	return filtered
}

// GetDetailedReport returns a detailed report of all errors
func (cec *ConfigurationErrorCollection) GetDetailedReport() string {
	if len(cec.Errors) == 0 {
		return "No configuration errors to report"
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Configuration is invalid (%d errors):", len(cec.Errors)))
	for _, err := range cec.Errors {
		parts = append(parts, err.DetailedError())
	}

	return strings.Join(parts, "\n")
}

// ErrOrNil returns the collection as an error, or nil when it is empty.
func (cec ConfigurationErrorCollection) ErrOrNil() error {
	if len(cec.Errors) == 0 {
		return nil
	}
	return cec
}
