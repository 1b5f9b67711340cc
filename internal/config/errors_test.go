package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError_Error(t *testing.T) {
	err := ConfigurationError{Option: OptionTailnet, Source: SourceEnv, Message: "is required"}
	assert.Equal(t, "[env] tailnet: is required", err.Error())

	err = ConfigurationError{Source: SourceFile, Message: "invalid YAML"}
	assert.Equal(t, "[file] invalid YAML", err.Error())
}

func TestConfigurationError_DetailedError(t *testing.T) {
	err := ConfigurationError{
		Option:      OptionClientSecret,
		Source:      SourceFile,
		Path:        "inventory/tailscale.yaml",
		Message:     "is required",
		Suggestions: []string{"export TAILSCALE_CLIENT_SECRET"},
	}

	detailed := err.DetailedError()
	assert.Contains(t, detailed, `option "client_secret"`)
	assert.Contains(t, detailed, "File: inventory/tailscale.yaml")
	assert.Contains(t, detailed, "- export TAILSCALE_CLIENT_SECRET")
}

func TestConfigurationErrorCollection(t *testing.T) {
	var errs ConfigurationErrorCollection
	assert.False(t, errs.HasErrors())
	assert.NoError(t, errs.ErrOrNil())
	assert.Equal(t, "no configuration errors", errs.Error())

	errs.AddError(OptionTailnet, SourceDefault, "is required")
	assert.Equal(t, "[default] tailnet: is required", errs.Error())

	errs.AddError(OptionClientID, SourceDefault, "is required", "pass --client-id")
	assert.Equal(t, 2, errs.Count())
	assert.Contains(t, errs.Error(), "2 configuration errors")
	assert.Contains(t, errs.Error(), "(and 1 more)")
	assert.Len(t, errs.ForOption(OptionClientID), 1)
	assert.Contains(t, errs.GetDetailedReport(), "pass --client-id")

	wrapped := fmt.Errorf("resolving: %w", errs.ErrOrNil())
	var got ConfigurationErrorCollection
	require.True(t, errors.As(wrapped, &got))
	assert.Equal(t, 2, got.Count())
}

func TestRender(t *testing.T) {
	out, err := Render(OptionTailnet, "plain-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", out)

	t.Setenv("TS_RENDER_TEST", "  spaced  ")
	out, err = Render(OptionTailnet, `{{ env "TS_RENDER_TEST" }}`)
	require.NoError(t, err)
	assert.Equal(t, "spaced", out)

	_, err = Render(OptionTailnet, "{{ unclosed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")

	_, err = Render(OptionTailnet, `{{ readFile "/does/not/exist" }}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute template")
}
