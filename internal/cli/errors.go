package cli

import (
	"errors"

	"tsinventory/internal/config"
	"tsinventory/internal/tailscale"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitConfig  = 2
	ExitAuth    = 3
	ExitNetwork = 4
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErrs config.ConfigurationErrorCollection
	var cfgErr config.ConfigurationError
	var authErr *tailscale.AuthenticationError
	var netErr *tailscale.NetworkError

	switch {
	case errors.As(err, &cfgErrs), errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &authErr):
		return ExitAuth
	case errors.As(err, &netErr):
		return ExitNetwork
	default:
		return ExitError
	}
}

// DescribeError renders err for the terminal. Configuration errors get the
// detailed report with suggestions.
func DescribeError(err error) string {
	var cfgErrs config.ConfigurationErrorCollection
	if errors.As(err, &cfgErrs) {
		return cfgErrs.GetDetailedReport()
	}

	var cfgErr config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return cfgErr.DetailedError()
	}

	return FormatError(err)
}
