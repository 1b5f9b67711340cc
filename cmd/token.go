package cmd

import (
	"fmt"
	"time"

	"tsinventory/internal/cli"
	"tsinventory/internal/config"
	"tsinventory/internal/oauth"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage cached OAuth access tokens",
	}
	cmd.AddCommand(newTokenStatusCmd(), newTokenClearCmd())
	return cmd
}

// openTokenStore opens the on-disk token cache named by the inventory file.
// Credentials are not required.
func openTokenStore(cmd *cobra.Command) (*oauth.TokenStore, error) {
	dir, err := config.TokenCacheDir(config.OptionsFromFlags(cmd.Flags(), nil))
	if err != nil {
		return nil, err
	}
	return oauth.NewTokenStore(oauth.TokenStoreConfig{StorageDir: dir, FileMode: true})
}

func newTokenStatusCmd() *cobra.Command {
	flags := &cli.CommandFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cached access tokens and when they expire",
		Long: `Show every access token cached on disk, the credentials it belongs to
and whether it is still valid. Tokens themselves are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := flags.Format(cli.TokenOutputFormats)
			if err != nil {
				return err
			}

			store, err := openTokenStore(cmd)
			if err != nil {
				return err
			}

			status, err := store.Status()
			if err != nil {
				return err
			}
			return cli.RenderTokenStatus(cmd.OutOrStdout(), status, format, flags.NoHeaders, time.Now())
		},
	}

	cli.RegisterOutputFlag(cmd, flags, cli.OutputFormatTable, cli.TokenOutputFormats)
	cli.RegisterNoHeadersFlag(cmd, flags)
	return cmd
}

func newTokenClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached access token",
		Long: `Remove every access token cached on disk. The next run fetches a new
token with the client credentials. Credentials are not required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTokenStore(cmd)
			if err != nil {
				return err
			}

			removed, err := store.Clear()
			if err != nil {
				return fmt.Errorf("failed to clear token cache: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed %d cached token(s) from %s", removed, store.StorageDir())))
			return nil
		},
	}
}
