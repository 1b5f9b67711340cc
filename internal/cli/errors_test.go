package cli

import (
	"errors"
	"fmt"
	"testing"

	"tsinventory/internal/config"
	"tsinventory/internal/tailscale"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	var cfgErrs config.ConfigurationErrorCollection
	cfgErrs.AddError(config.OptionTailnet, config.SourceDefault, "is required")

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitOK},
		{"plain", errors.New("boom"), ExitError},
		{"config collection", cfgErrs, ExitConfig},
		{"single config error", config.ConfigurationError{Message: "bad"}, ExitConfig},
		{"wrapped auth", fmt.Errorf("failed to build inventory: %w", &tailscale.AuthenticationError{}), ExitAuth},
		{"wrapped network", fmt.Errorf("x: %w", &tailscale.NetworkError{Type: tailscale.NetworkErrorTimeout}), ExitNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCode(tt.err))
		})
	}
}

func TestDescribeError(t *testing.T) {
	var cfgErrs config.ConfigurationErrorCollection
	cfgErrs.AddError(config.OptionClientSecret, config.SourceDefault, "is required", "export TAILSCALE_CLIENT_SECRET")

	assert.Contains(t, DescribeError(cfgErrs), "export TAILSCALE_CLIENT_SECRET")
	assert.Contains(t, DescribeError(config.ConfigurationError{Option: "config", Message: "cannot read"}), "cannot read")
	assert.Equal(t, "Error: boom", DescribeError(errors.New("boom")))
}

func TestFormatMessages(t *testing.T) {
	assert.Contains(t, FormatSuccess("Removed 2 tokens"), "Removed 2 tokens")
	assert.Contains(t, FormatWarning("empty"), "empty")
	assert.Equal(t, "Error: x", FormatError(errors.New("x")))
}
