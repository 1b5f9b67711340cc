package cmd

import (
	"context"
	"net/http"
	"os"

	"tsinventory/internal/config"
	"tsinventory/internal/oauth"
	"tsinventory/internal/tailscale"
	"tsinventory/pkg/logging"

	"github.com/spf13/cobra"
)

// resolveConfig resolves the configuration for cmd. args are positional
// tags and replace every other source of tags when present.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	return config.Resolve(config.OptionsFromFlags(cmd.Flags(), args))
}

// newClient wires the token cache, the client-credentials token source and
// the API client for cfg.
func newClient(ctx context.Context, cfg *config.Config) *tailscale.Client {
	store, err := oauth.NewTokenStore(oauth.TokenStoreConfig{
		StorageDir: cfg.TokenCache.Dir,
		FileMode:   cfg.TokenCache.Enabled,
	})
	if err != nil {
		logging.Warn("TokenStore", "Token cache unavailable, keeping tokens in memory: %v", err)
		store, _ = oauth.NewTokenStore(oauth.TokenStoreConfig{StorageDir: os.TempDir()})
	}

	tokens := oauth.NewClientCredentialsSource(ctx, oauth.ClientCredentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.EffectiveTokenURL(),
	}, store, &http.Client{Timeout: cfg.Timeout}, logging.Logger("OAuth"))

	return tailscale.NewClient(cfg.Tailnet, tokens,
		tailscale.WithBaseURL(cfg.APIBaseURL),
		tailscale.WithTimeout(cfg.Timeout),
		tailscale.WithRetries(cfg.Retries),
		tailscale.WithLogger(logging.Logger("Tailscale")),
	)
}
