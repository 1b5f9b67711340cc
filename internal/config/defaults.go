package config

import (
	"tsinventory/internal/tailscale"
)

// DefaultConfigPath is read when --config is not given. It is fine for it to
// be missing.
const DefaultConfigPath = "inventory/tailscale.yaml"

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Tags:       []string{},
		APIBaseURL: tailscale.DefaultBaseURL,
		Timeout:    tailscale.DefaultTimeout,
		Retries:    tailscale.DefaultMaxRetries,
		TokenCache: TokenCacheConfig{
			Enabled: true,
		},
	}
}

// EffectiveTokenURL returns token_url, or the token endpoint under
// api_base_url when it is not set.
func (c *Config) EffectiveTokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	return tailscale.TokenURL(c.APIBaseURL)
}
