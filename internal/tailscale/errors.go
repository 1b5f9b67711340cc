package tailscale

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Operations named in errors.
const (
	OpToken       = "token"
	OpListDevices = "list devices"
)

// NetworkErrorType categorizes a NetworkError.
type NetworkErrorType int

const (
	// NetworkErrorUnknown indicates an unclassified transport error.
	NetworkErrorUnknown NetworkErrorType = iota
	// NetworkErrorTLS indicates a TLS/certificate verification error.
	NetworkErrorTLS
	// NetworkErrorConnection indicates a connectivity error (refused, unreachable).
	NetworkErrorConnection
	// NetworkErrorTimeout indicates the request ran out of time.
	NetworkErrorTimeout
	// NetworkErrorDNS indicates a DNS resolution failure.
	NetworkErrorDNS
	// NetworkErrorStatus indicates the API answered with a non-2xx status.
	NetworkErrorStatus
	// NetworkErrorProtocol indicates a malformed or inconsistent response.
	NetworkErrorProtocol
)

// String returns a human-readable name for the error type.
func (t NetworkErrorType) String() string {
	switch t {
	case NetworkErrorTLS:
		return "TLS certificate error"
	case NetworkErrorConnection:
		return "connection error"
	case NetworkErrorTimeout:
		return "timeout"
	case NetworkErrorDNS:
		return "DNS resolution error"
	case NetworkErrorStatus:
		return "unexpected HTTP status"
	case NetworkErrorProtocol:
		return "invalid response"
	default:
		return "network error"
	}
}

// NetworkError reports that the Tailscale API could not be reached or did
// not answer successfully, after any retries were exhausted.
type NetworkError struct {
	// Tailnet is the tailnet the call was made for.
	Tailnet string
	// Operation is the call that failed (OpToken, OpListDevices).
	Operation string
	// Endpoint is the URL that was requested.
	Endpoint string
	// Type categorizes the failure.
	Type NetworkErrorType
	// StatusCode is set for NetworkErrorStatus.
	StatusCode int
	// Attempts is how many times the call was tried.
	Attempts int
	// Reason is the underlying error.
	Reason error
}

// Error returns a message naming the tailnet and the failed call.
func (e *NetworkError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tailnet %q: %s failed", e.Tailnet, e.Operation)
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	fmt.Fprintf(&b, ": %s", e.Type)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " %d", e.StatusCode)
	}
	if e.Reason != nil {
		fmt.Fprintf(&b, ": %v", e.Reason)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *NetworkError) Is(target error) bool {
	_, ok := target.(*NetworkError)
	return ok
}

// AuthenticationError reports that the OAuth credentials were rejected,
// either by the token endpoint or by the API itself.
type AuthenticationError struct {
	// Tailnet is the tailnet the call was made for.
	Tailnet string
	// Operation is the call that was rejected.
	Operation string
	// StatusCode is the HTTP status of the rejection, if known.
	StatusCode int
	// Reason is the underlying error.
	Reason error
}

// Error returns a message with guidance on fixing the credentials.
func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("tailnet %q: %s rejected the OAuth client credentials", e.Tailnet, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Reason != nil {
		msg += fmt.Sprintf(": %v", e.Reason)
	}
	return msg + "; check client_id, client_secret and the client's devices:read scope"
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthenticationError) Is(target error) bool {
	_, ok := target.(*AuthenticationError)
	return ok
}

// classifyTransportError turns an error from http.Client.Do into a
// NetworkError of the matching type.
func classifyTransportError(err error, tailnet, operation, endpoint string) *NetworkError {
	netErr := &NetworkError{
		Tailnet:   tailnet,
		Operation: operation,
		Endpoint:  endpoint,
		Type:      NetworkErrorUnknown,
		Reason:    err,
	}

	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		netErr.Type = NetworkErrorTLS
	case errors.As(err, &dnsErr):
		netErr.Type = NetworkErrorDNS
	case isTimeoutError(err):
		netErr.Type = NetworkErrorTimeout
	case isConnectionError(err.Error()):
		netErr.Type = NetworkErrorConnection
	}

	return netErr
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	var certErr x509.CertificateInvalidError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	var systemRootsErr x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isConnectionError checks if the error string indicates a connectivity issue.
func isConnectionError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
		"EOF",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
