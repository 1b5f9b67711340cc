package auth

import "time"

// Token states.
const (
	StateValid   = "valid"
	StateExpired = "expired"
	StateInvalid = "invalid"
)

// StatusResponse represents the state of the token cache.
type StatusResponse struct {
	// StorageDir is the directory the tokens are read from
	StorageDir string `json:"storage_dir"`

	// Tokens lists every cached token, sorted by expiry
	Tokens []TokenStatus `json:"tokens"`
}

// TokenStatus describes a single cached access token. The token itself is
// never included.
type TokenStatus struct {
	// File is the token file name inside StorageDir
	File string `json:"file"`

	// TokenURL and ClientID identify the credentials the token belongs to
	TokenURL string `json:"token_url,omitempty"`
	ClientID string `json:"client_id,omitempty"`

	// State is one of: "valid", "expired", "invalid"
	State string `json:"state"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Error is present when State == "invalid"
	Error string `json:"error,omitempty"`
}

// Valid reports whether the token can still be used.
func (s TokenStatus) Valid() bool {
	return s.State == StateValid
}

// ValidCount returns the number of usable tokens.
func (r StatusResponse) ValidCount() int {
	n := 0
	for _, t := range r.Tokens {
		if t.Valid() {
			n++
		}
	}
	return n
}
