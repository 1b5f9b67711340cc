package tailscale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the Tailscale API v2 root.
	DefaultBaseURL = "https://api.tailscale.com/api/v2"

	// DefaultTimeout bounds every single HTTP call, token exchange included.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is how many times a transient failure is retried.
	DefaultMaxRetries = 3

	// DefaultInitialBackoff and DefaultMaxBackoff shape the retry schedule.
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultMaxBackoff     = 5 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// TokenURL returns the OAuth token endpoint for an API base URL.
func TokenURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/oauth/token"
}

// invalidator is implemented by token sources that can drop a cached token.
type invalidator interface {
	Invalidate() error
}

// Client lists tailnet devices through the Tailscale API.
type Client struct {
	baseURL    string
	tailnet    string
	tokens     oauth2.TokenSource
	base       *http.Client
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client whose Transport carries authenticated
// requests. The transport is wrapped with the OAuth token source; the
// client's Timeout is ignored in favour of WithTimeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.base = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetries sets how many times transient failures are retried.
// Zero disables retries.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoff sets the initial and maximum wait between retries.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = initial
		c.maxBackoff = max
	}
}

// NewClient creates a client for the given tailnet. A tailnet of "-" means
// the default tailnet of the OAuth client.
func NewClient(tailnet string, tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		tailnet:        tailnet,
		tokens:         tokens,
		base:           &http.Client{},
		timeout:        DefaultTimeout,
		logger:         slog.Default(),
		maxRetries:     DefaultMaxRetries,
		initialBackoff: DefaultInitialBackoff,
		maxBackoff:     DefaultMaxBackoff,
	}

	for _, opt := range opts {
		opt(c)
	}

	// The token source is consulted on every request; caching is its job.
	c.httpClient = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: taggedTokenSource{c.tokens},
			Base:   c.base.Transport,
		},
	}

	return c
}

// Tailnet returns the tailnet the client lists devices for.
func (c *Client) Tailnet() string {
	return c.tailnet
}

// ListDevices returns every device of the tailnet. Pages are followed until
// the API stops returning a cursor; devices seen on an earlier page are
// skipped so each device appears once.
func (c *Client) ListDevices(ctx context.Context) ([]Device, error) {
	var devices []Device
	seen := make(map[string]struct{})
	seenCursors := make(map[string]struct{})

	cursor := ""
	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, cursor)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, d := range resp.Devices {
			key := deviceKey(d)
			if key != "" {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			devices = append(devices, d)
			added++
		}
		c.logger.Debug("Fetched device page",
			"tailnet", c.tailnet,
			"page", page,
			"devices", len(resp.Devices),
			"new", added)

		if resp.NextCursor == "" {
			break
		}
		if _, loop := seenCursors[resp.NextCursor]; loop {
			return nil, &NetworkError{
				Tailnet:   c.tailnet,
				Operation: OpListDevices,
				Endpoint:  c.devicesURL(resp.NextCursor),
				Type:      NetworkErrorProtocol,
				Reason:    fmt.Errorf("pagination cursor %q repeated", resp.NextCursor),
			}
		}
		seenCursors[resp.NextCursor] = struct{}{}
		cursor = resp.NextCursor
	}

	return devices, nil
}

func deviceKey(d Device) string {
	switch {
	case d.ID != "":
		return "id:" + d.ID
	case d.NodeID != "":
		return "node:" + d.NodeID
	case d.Name != "":
		return "name:" + d.Name
	default:
		return ""
	}
}

// fetchPage fetches one page with retries. A 401 from the devices endpoint
// invalidates the cached token and is retried once with a fresh token.
func (c *Client) fetchPage(ctx context.Context, cursor string) (*devicesResponse, error) {
	endpoint := c.devicesURL(cursor)
	reauthenticated := false
	attempts := 0

	operation := func() (*devicesResponse, error) {
		attempts++
		page, err := c.getDevices(ctx, endpoint)
		if err != nil && !reauthenticated && c.isRejectedToken(err) {
			reauthenticated = true
			if c.invalidateToken() {
				page, err = c.getDevices(ctx, endpoint)
			}
		}
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil || !isRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff

	page, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("Tailscale API call failed, retrying",
				"tailnet", c.tailnet,
				"attempt", attempts,
				"retry_in", next,
				"error", err)
		}),
	)
	if err != nil {
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			netErr.Attempts = attempts
		}
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) && !errors.As(err, &netErr) {
			// Context cancellation or deadline while waiting between attempts.
			err = &NetworkError{
				Tailnet:   c.tailnet,
				Operation: OpListDevices,
				Endpoint:  endpoint,
				Type:      NetworkErrorTimeout,
				Attempts:  attempts,
				Reason:    err,
			}
		}
		return nil, err
	}

	return page, nil
}

// getDevices performs a single request for one page.
func (c *Client) getDevices(ctx context.Context, endpoint string) (*devicesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{
			Tailnet:   c.tailnet,
			Operation: OpListDevices,
			Endpoint:  endpoint,
			Type:      NetworkErrorProtocol,
			Reason:    err,
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyDoError(err, endpoint)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(err, c.tailnet, OpListDevices, endpoint)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var page devicesResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &NetworkError{
				Tailnet:   c.tailnet,
				Operation: OpListDevices,
				Endpoint:  endpoint,
				Type:      NetworkErrorProtocol,
				Reason:    fmt.Errorf("failed to parse device list: %w", err),
			}
		}
		return &page, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthenticationError{
			Tailnet:    c.tailnet,
			Operation:  OpListDevices,
			StatusCode: resp.StatusCode,
			Reason:     errors.New(apiMessage(body, resp.Status)),
		}

	default:
		return nil, &NetworkError{
			Tailnet:    c.tailnet,
			Operation:  OpListDevices,
			Endpoint:   endpoint,
			Type:       NetworkErrorStatus,
			StatusCode: resp.StatusCode,
			Reason:     errors.New(apiMessage(body, resp.Status)),
		}
	}
}

// classifyDoError maps an error from http.Client.Do, which may come from the
// token exchange performed by the OAuth transport.
func (c *Client) classifyDoError(err error, endpoint string) error {
	var tokErr *tokenError
	if !errors.As(err, &tokErr) {
		return classifyTransportError(err, c.tailnet, OpListDevices, endpoint)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(tokErr.err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		tokenEndpoint := ""
		if retrieveErr.Response.Request != nil {
			tokenEndpoint = retrieveErr.Response.Request.URL.String()
		}
		switch {
		case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
			return &AuthenticationError{
				Tailnet:    c.tailnet,
				Operation:  OpToken,
				StatusCode: status,
				Reason:     tokErr.err,
			}
		default:
			return &NetworkError{
				Tailnet:    c.tailnet,
				Operation:  OpToken,
				Endpoint:   tokenEndpoint,
				Type:       NetworkErrorStatus,
				StatusCode: status,
				Reason:     tokErr.err,
			}
		}
	}

	return classifyTransportError(tokErr.err, c.tailnet, OpToken, "")
}

// isRejectedToken reports whether the API refused an access token that the
// token endpoint had issued, which happens when a cached token was revoked.
func (c *Client) isRejectedToken(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr) &&
		authErr.Operation == OpListDevices &&
		authErr.StatusCode == http.StatusUnauthorized
}

// invalidateToken drops the cached token. It returns false when the token
// source has no cache to drop, in which case retrying cannot help.
func (c *Client) invalidateToken() bool {
	inv, ok := c.tokens.(invalidator)
	if !ok {
		return false
	}
	if err := inv.Invalidate(); err != nil {
		c.logger.Warn("Failed to invalidate cached token", "error", err)
	}
	c.logger.Info("API rejected cached token, retrying with a new one", "tailnet", c.tailnet)
	return true
}

func (c *Client) devicesURL(cursor string) string {
	query := url.Values{"fields": {"all"}}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	return fmt.Sprintf("%s/tailnet/%s/devices?%s", c.baseURL, url.PathEscape(c.tailnet), query.Encode())
}

// isRetryable decides whether an error may go away on its own.
func isRetryable(err error) bool {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return false
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		return true
	}

	switch netErr.Type {
	case NetworkErrorStatus:
		return netErr.StatusCode == http.StatusTooManyRequests || netErr.StatusCode >= 500
	case NetworkErrorTLS, NetworkErrorProtocol:
		return false
	default:
		return true
	}
}

func apiMessage(body []byte, status string) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return status
}

// tokenError marks errors raised while obtaining an access token so they can
// be told apart from errors of the API request itself.
type tokenError struct {
	err error
}

func (e *tokenError) Error() string {
	return "obtaining access token: " + e.err.Error()
}

func (e *tokenError) Unwrap() error {
	return e.err
}

type taggedTokenSource struct {
	src oauth2.TokenSource
}

func (s taggedTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.src.Token()
	if err != nil {
		return nil, &tokenError{err: err}
	}
	return token, nil
}
