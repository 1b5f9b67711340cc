package config

import (
	"tsinventory/internal/tailscale"

	"github.com/spf13/pflag"
)

// Flag names shared by every command.
const (
	FlagConfig       = "config"
	FlagTailnet      = "tailnet"
	FlagClientID     = "client-id"
	FlagClientSecret = "client-secret"
	FlagTags         = "tags"
	FlagGroupPrefix  = "group-prefix"
	FlagTimeout      = "timeout"
	FlagRetries      = "retries"
	FlagNoTokenCache = "no-token-cache"
)

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", DefaultConfigPath, "Inventory file (YAML)")
	fs.String(FlagTailnet, "", "Tailnet name (env TAILNET, TAILNET_NAME)")
	fs.String(FlagClientID, "", "OAuth client ID (env TAILSCALE_CLIENT_ID)")
	fs.String(FlagClientSecret, "", "OAuth client secret (env TAILSCALE_CLIENT_SECRET)")
	fs.StringSlice(FlagTags, nil, "Tags to include, comma separated (env TAILSCALE_TAGS)")
	fs.String(FlagGroupPrefix, "", "Prefix added to every group name")
	fs.Duration(FlagTimeout, tailscale.DefaultTimeout, "Timeout for each API request")
	fs.Int(FlagRetries, tailscale.DefaultMaxRetries, "Retries for transient API failures")
	fs.Bool(FlagNoTokenCache, false, "Do not read or write the on-disk token cache")
}

// OptionsFromFlags builds ResolveOptions from a flag set registered with
// RegisterFlags. args are positional tags.
func OptionsFromFlags(fs *pflag.FlagSet, args []string) ResolveOptions {
	path, _ := fs.GetString(FlagConfig)
	return ResolveOptions{
		ConfigPath:     path,
		ConfigExplicit: fs.Changed(FlagConfig),
		Flags:          fs,
		Args:           args,
	}
}
