package oauth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"tsinventory/pkg/auth"
	"tsinventory/pkg/logging"

	"golang.org/x/oauth2"
)

// DefaultTokenStorageDir is the default token cache directory, relative to
// the user's home directory.
const DefaultTokenStorageDir = ".config/tsinventory/tokens"

// tokenExpiryBuffer is the margin applied when checking token validity so a
// token does not expire in the middle of an inventory run.
const tokenExpiryBuffer = 60 * time.Second

// TokenStore caches OAuth tokens per set of client credentials.
// It always keeps tokens in memory and optionally persists them as JSON files.
type TokenStore struct {
	mu         sync.RWMutex
	storageDir string
	tokens     map[string]*StoredToken
	fileMode   bool
}

// Credential identifies the client credentials a token was issued to. The
// client secret is only held as a digest, so a changed or revoked secret
// never matches a token cached for the old one.
type Credential struct {
	TokenURL     string
	ClientID     string
	SecretDigest string
}

// NewCredential builds the Credential for a client ID and secret.
func NewCredential(tokenURL, clientID, clientSecret string) Credential {
	return Credential{
		TokenURL:     tokenURL,
		ClientID:     clientID,
		SecretDigest: SecretDigest(clientSecret),
	}
}

// SecretDigest returns the hex SHA-256 digest of a client secret.
func SecretDigest(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:])
}

func (c Credential) matches(token *StoredToken) bool {
	return token.TokenURL == c.TokenURL &&
		token.ClientID == c.ClientID &&
		token.SecretDigest == c.SecretDigest
}

// StoredToken is a cached access token with the credentials it belongs to.
type StoredToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Expiry      time.Time `json:"expiry,omitempty"`

	// TokenURL, ClientID and SecretDigest identify the credentials that
	// obtained the token.
	TokenURL     string `json:"token_url"`
	ClientID     string `json:"client_id"`
	SecretDigest string `json:"secret_digest"`

	CreatedAt time.Time `json:"created_at"`
}

// TokenStoreConfig configures the token store.
type TokenStoreConfig struct {
	// StorageDir is the directory for token files.
	// Defaults to ~/.config/tsinventory/tokens.
	StorageDir string

	// FileMode enables file persistence. If false, tokens live only as long
	// as the process.
	FileMode bool
}

// NewTokenStore creates a token store. In file mode the storage directory is
// created with 0700 permissions.
func NewTokenStore(cfg TokenStoreConfig) (*TokenStore, error) {
	storageDir := cfg.StorageDir
	if storageDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(homeDir, DefaultTokenStorageDir)
	}

	store := &TokenStore{
		storageDir: storageDir,
		tokens:     make(map[string]*StoredToken),
		fileMode:   cfg.FileMode,
	}

	if cfg.FileMode {
		if err := os.MkdirAll(storageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create token storage directory: %w", err)
		}
	}

	return store, nil
}

// StorageDir returns the directory token files are written to.
func (s *TokenStore) StorageDir() string {
	return s.storageDir
}

// StoreToken caches a token for the given credentials.
func (s *TokenStore) StoreToken(cred Credential, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &StoredToken{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
		TokenURL:     cred.TokenURL,
		ClientID:     cred.ClientID,
		SecretDigest: cred.SecretDigest,
		CreatedAt:    time.Now(),
	}

	key := TokenKey(cred)
	s.tokens[key] = stored

	if s.fileMode {
		if err := s.writeTokenFile(key, stored); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
		logging.Debug("TokenStore", "Cached OAuth token for client %s (expires %s)",
			cred.ClientID, stored.Expiry.Format(time.RFC3339))
	}

	return nil
}

// GetToken returns the cached token for the given credentials, or nil if
// none is cached or the cached one is about to expire.
func (s *TokenStore) GetToken(cred Credential) *StoredToken {
	key := TokenKey(cred)

	s.mu.RLock()
	if token, ok := s.tokens[key]; ok && isTokenValid(token) {
		s.mu.RUnlock()
		return token
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if token, ok := s.tokens[key]; ok {
		if isTokenValid(token) {
			return token
		}
		delete(s.tokens, key)
		return nil
	}

	if s.fileMode {
		token, err := s.readTokenFile(key)
		if err == nil && isTokenValid(token) && cred.matches(token) {
			s.tokens[key] = token
			return token
		}
	}

	return nil
}

// DeleteToken removes the cached token for the given credentials.
func (s *TokenStore) DeleteToken(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := TokenKey(cred)
	delete(s.tokens, key)

	if s.fileMode {
		if err := s.deleteTokenFile(key); err != nil {
			return fmt.Errorf("failed to delete token file: %w", err)
		}
	}

	logging.Debug("TokenStore", "Dropped cached OAuth token for client %s", cred.ClientID)
	return nil
}

// Clear removes every cached token, in memory and on disk, and returns how
// many were removed. The on-disk count is reported in file mode.
func (s *TokenStore) Clear() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.tokens)
	s.tokens = make(map[string]*StoredToken)

	if !s.fileMode {
		return removed, nil
	}

	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read token directory: %w", err)
	}

	fileCount := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(s.storageDir, entry.Name())); err != nil {
			return fileCount, fmt.Errorf("failed to remove token file %s: %w", entry.Name(), err)
		}
		fileCount++
	}

	logging.Info("TokenStore", "Cleared %d cached OAuth tokens from %s", fileCount, s.storageDir)
	return fileCount, nil
}

// Status describes every token file in the storage directory. Unreadable
// files are reported as invalid rather than failing the whole listing.
func (s *TokenStore) Status() (auth.StatusResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := auth.StatusResponse{StorageDir: s.storageDir, Tokens: []auth.TokenStatus{}}

	entries, err := os.ReadDir(s.storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return resp, nil
		}
		return resp, fmt.Errorf("failed to read token directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		status := auth.TokenStatus{File: entry.Name()}

		token, err := s.readTokenFile(strings.TrimSuffix(entry.Name(), ".json"))
		switch {
		case err != nil:
			status.State = auth.StateInvalid
			status.Error = err.Error()
		default:
			status.TokenURL = token.TokenURL
			status.ClientID = token.ClientID
			status.CreatedAt = token.CreatedAt
			status.ExpiresAt = token.Expiry
			status.State = auth.StateExpired
			if isTokenValid(token) {
				status.State = auth.StateValid
			}
		}
		resp.Tokens = append(resp.Tokens, status)
	}

	sort.SliceStable(resp.Tokens, func(i, j int) bool {
		return resp.Tokens[i].ExpiresAt.Before(resp.Tokens[j].ExpiresAt)
	})
	return resp, nil
}

// ToOAuth2Token converts a StoredToken to an oauth2.Token.
func (t *StoredToken) ToOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		Expiry:      t.Expiry,
	}
}

// TokenKey derives the cache key for a set of credentials. The key is
// filesystem safe and reveals neither the client ID nor the secret digest.
func TokenKey(cred Credential) string {
	hash := sha256.Sum256([]byte(cred.TokenURL + "\x00" + cred.ClientID + "\x00" + cred.SecretDigest))
	return hex.EncodeToString(hash[:16])
}

func isTokenValid(token *StoredToken) bool {
	if token == nil || token.AccessToken == "" {
		return false
	}
	if token.Expiry.IsZero() {
		return true
	}
	return time.Now().Add(tokenExpiryBuffer).Before(token.Expiry)
}

func (s *TokenStore) writeTokenFile(key string, token *StoredToken) error {
	filePath := filepath.Join(s.storageDir, key+".json")

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

func (s *TokenStore) readTokenFile(key string) (*StoredToken, error) {
	filePath := filepath.Join(s.storageDir, key+".json")

	// #nosec G304 -- filePath is built from a hex digest, not user input
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var token StoredToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &token, nil
}

func (s *TokenStore) deleteTokenFile(key string) error {
	err := os.Remove(filepath.Join(s.storageDir, key+".json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
