package tailscale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tsinventory/internal/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testTailnet      = "example.com"
	testClientID     = "kClient123"
	testClientSecret = "tskey-client-secret"
)

// fakeAPI is an in-process stand-in for the Tailscale API and its OAuth
// token endpoint.
type fakeAPI struct {
	server *httptest.Server

	mu      sync.Mutex
	pages   map[string]devicesResponse
	revoked map[string]bool
	// failures is how many device requests answer failStatus before
	// the real page is served.
	failures   int
	failStatus int
	delay      time.Duration

	tokenCalls  int32
	deviceCalls int32
	lastQuery   string
	lastAuth    string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		pages:      map[string]devicesResponse{},
		revoked:    map[string]bool{},
		failStatus: http.StatusServiceUnavailable,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/oauth/token", f.handleToken)
	mux.HandleFunc("/api/v2/tailnet/"+testTailnet+"/devices", f.handleDevices)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeAPI) baseURL() string {
	return f.server.URL + "/api/v2"
}

func (f *fakeAPI) handleToken(w http.ResponseWriter, r *http.Request) {
	n := atomic.AddInt32(&f.tokenCalls, 1)

	_ = r.ParseForm()
	id, secret, ok := r.BasicAuth()
	if !ok {
		id, secret = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
	}
	w.Header().Set("Content-Type", "application/json")
	if id != testClientID || secret != testClientSecret {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client","error_description":"invalid client credentials"}`)
		return
	}
	fmt.Fprintf(w, `{"access_token":"token-%d","token_type":"Bearer","expires_in":3600}`, n)
}

func (f *fakeAPI) handleDevices(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&f.deviceCalls, 1)

	f.mu.Lock()
	f.lastQuery = r.URL.RawQuery
	f.lastAuth = r.Header.Get("Authorization")
	token := strings.TrimPrefix(f.lastAuth, "Bearer ")
	revoked := f.revoked[token]
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	status := f.failStatus
	page, ok := f.pages[r.URL.Query().Get("cursor")]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case token == "" || revoked:
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"API token invalid"}`)
	case fail:
		w.WriteHeader(status)
		fmt.Fprint(w, `{"message":"temporarily unavailable"}`)
	case !ok:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"unknown cursor"}`)
	default:
		_ = json.NewEncoder(w).Encode(page)
	}
}

func (f *fakeAPI) newClient(t *testing.T, secret string, opts ...Option) *Client {
	t.Helper()

	store, err := oauth.NewTokenStore(oauth.TokenStoreConfig{StorageDir: t.TempDir()})
	require.NoError(t, err)

	tokens := oauth.NewClientCredentialsSource(context.Background(), oauth.ClientCredentials{
		ClientID:     testClientID,
		ClientSecret: secret,
		TokenURL:     TokenURL(f.baseURL()),
	}, store, f.server.Client(), nil)

	base := []Option{
		WithBaseURL(f.baseURL()),
		WithHTTPClient(f.server.Client()),
		WithBackoff(time.Millisecond, 5*time.Millisecond),
	}
	return NewClient(testTailnet, tokens, append(base, opts...)...)
}

func TestListDevices_SinglePage(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{
		{ID: "1", Hostname: "a", Tags: []string{"tag:node", "tag:db"}, Addresses: []string{"100.64.0.1"}},
		{ID: "2", Hostname: "b", Tags: []string{"tag:web"}, Addresses: []string{"100.64.0.2"}},
	}}

	client := api.newClient(t, testClientSecret)
	devices, err := client.ListDevices(context.Background())
	require.NoError(t, err)

	require.Len(t, devices, 2)
	assert.Equal(t, "a", devices[0].Hostname)
	assert.Equal(t, "b", devices[1].Hostname)
	assert.Equal(t, "fields=all", api.lastQuery)
	assert.Equal(t, "Bearer token-1", api.lastAuth)
	assert.Equal(t, testTailnet, client.Tailnet())
}

func TestListDevices_FollowsCursorWithoutDuplicates(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{
		Devices:    []Device{{ID: "1", Hostname: "a"}, {ID: "2", Hostname: "b"}},
		NextCursor: "c1",
	}
	api.pages["c1"] = devicesResponse{
		Devices:    []Device{{ID: "2", Hostname: "b"}, {ID: "3", Hostname: "c"}},
		NextCursor: "c2",
	}
	api.pages["c2"] = devicesResponse{
		Devices: []Device{{ID: "4", Hostname: "d"}},
	}

	devices, err := api.newClient(t, testClientSecret).ListDevices(context.Background())
	require.NoError(t, err)

	var names []string
	for _, d := range devices {
		names = append(names, d.Hostname)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, names)
	assert.Equal(t, int32(3), atomic.LoadInt32(&api.deviceCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.tokenCalls), "the token is reused across pages")
}

func TestListDevices_RepeatedCursor(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1"}}, NextCursor: "loop"}
	api.pages["loop"] = devicesResponse{Devices: []Device{{ID: "2"}}, NextCursor: "loop"}

	_, err := api.newClient(t, testClientSecret).ListDevices(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, NetworkErrorProtocol, netErr.Type)
	assert.Contains(t, err.Error(), testTailnet)
}

func TestListDevices_InvalidClientSecret(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1", Hostname: "a"}}}

	devices, err := api.newClient(t, "wrong-secret").ListDevices(context.Background())
	require.Error(t, err)
	assert.Nil(t, devices)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, OpToken, authErr.Operation)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, testTailnet, authErr.Tailnet)
	assert.Zero(t, atomic.LoadInt32(&api.deviceCalls), "the API is never reached without a token")
}

func TestListDevices_RetriesServerErrors(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1", Hostname: "a"}}}
	api.failures = 2

	devices, err := api.newClient(t, testClientSecret, WithRetries(3)).ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&api.deviceCalls))
}

func TestListDevices_RetriesRateLimit(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1", Hostname: "a"}}}
	api.failures = 1
	api.failStatus = http.StatusTooManyRequests

	devices, err := api.newClient(t, testClientSecret).ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestListDevices_ExhaustedRetries(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1"}}}
	api.failures = 100

	_, err := api.newClient(t, testClientSecret, WithRetries(2)).ListDevices(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, NetworkErrorStatus, netErr.Type)
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
	assert.Equal(t, 3, netErr.Attempts)
	assert.Equal(t, OpListDevices, netErr.Operation)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), atomic.LoadInt32(&api.deviceCalls))
}

func TestListDevices_ClientErrorNotRetried(t *testing.T) {
	api := newFakeAPI(t)
	api.failures = 1
	api.failStatus = http.StatusNotFound

	_, err := api.newClient(t, testClientSecret, WithRetries(3)).ListDevices(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
	assert.Equal(t, 1, netErr.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.deviceCalls))
}

func TestListDevices_RevokedTokenIsReplaced(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1", Hostname: "a"}}}
	api.revoked["token-1"] = true

	devices, err := api.newClient(t, testClientSecret, WithRetries(0)).ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&api.tokenCalls))
	assert.Equal(t, "Bearer token-2", api.lastAuth)
}

func TestListDevices_PersistentUnauthorized(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1"}}}
	api.revoked["token-1"] = true
	api.revoked["token-2"] = true
	api.revoked["token-3"] = true

	_, err := api.newClient(t, testClientSecret).ListDevices(context.Background())

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, OpListDevices, authErr.Operation)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(&api.tokenCalls), "only one re-authentication is attempted")
}

func TestListDevices_StaticTokenNotRetriedOn401(t *testing.T) {
	api := newFakeAPI(t)
	api.revoked["static"] = true

	client := NewClient(testTailnet,
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "static"}),
		WithBaseURL(api.baseURL()),
		WithHTTPClient(api.server.Client()),
		WithBackoff(time.Millisecond, time.Millisecond))

	_, err := client.ListDevices(context.Background())

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.deviceCalls))
}

func TestListDevices_ConnectionRefused(t *testing.T) {
	api := newFakeAPI(t)
	client := NewClient(testTailnet,
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "static"}),
		WithBaseURL(api.baseURL()),
		WithRetries(1),
		WithBackoff(time.Millisecond, time.Millisecond))
	api.server.Close()

	_, err := client.ListDevices(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, NetworkErrorConnection, netErr.Type)
	assert.Equal(t, 2, netErr.Attempts)
}

func TestListDevices_Timeout(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1"}}}
	api.delay = 200 * time.Millisecond

	_, err := api.newClient(t, testClientSecret,
		WithTimeout(20*time.Millisecond),
		WithRetries(0)).ListDevices(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, NetworkErrorTimeout, netErr.Type)
}

func TestListDevices_CancelledContext(t *testing.T) {
	api := newFakeAPI(t)
	api.pages[""] = devicesResponse{Devices: []Device{{ID: "1"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := api.newClient(t, testClientSecret).ListDevices(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestDevicesURL(t *testing.T) {
	client := NewClient("my tailnet", oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"}),
		WithBaseURL("https://api.example.com/api/v2/"))

	assert.Equal(t, "https://api.example.com/api/v2/tailnet/my%20tailnet/devices?fields=all", client.devicesURL(""))
	assert.Equal(t, "https://api.example.com/api/v2/tailnet/my%20tailnet/devices?cursor=abc&fields=all", client.devicesURL("abc"))
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t, "https://api.tailscale.com/api/v2/oauth/token", TokenURL(DefaultBaseURL))
	assert.Equal(t, "http://localhost/api/v2/oauth/token", TokenURL("http://localhost/api/v2/"))
}
