// Package oauth acquires and caches the OAuth access tokens tsinventory uses
// to call the Tailscale API.
//
// Tokens come from the OAuth 2.0 client-credentials grant
// (golang.org/x/oauth2/clientcredentials). Caching is explicit state with a
// defined lifecycle rather than a process-wide singleton:
//
//   - acquire-on-miss: CachingTokenSource.Token returns the cached token while
//     it is valid and fetches a new one otherwise
//   - expire-on-401: CachingTokenSource.Invalidate drops the cached token so
//     the next Token call fetches a fresh one
//   - Clear removes every cached token (`tsinventory token clear`)
//
// # Components
//
//   - TokenStore: in-memory token cache with optional JSON file persistence
//   - CachingTokenSource: oauth2.TokenSource backed by a TokenStore
//   - NewClientCredentialsSource: wires the client-credentials grant to a store
//
// # Security
//
// Token files are written with 0600 permissions inside a 0700 directory and
// are named by a SHA-256 digest of the token URL, the client ID and a digest
// of the client secret, so a token cached for one secret is never served to
// another. Token values and client secrets are never logged or written.
package oauth
