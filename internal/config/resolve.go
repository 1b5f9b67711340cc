package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tsinventory/pkg/logging"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ResolveOptions tells Resolve where to look.
type ResolveOptions struct {
	// ConfigPath is the inventory file. Empty skips the file layer.
	ConfigPath string
	// ConfigExplicit makes a missing ConfigPath an error.
	ConfigExplicit bool
	// Flags is the flag set registered with RegisterFlags. May be nil.
	Flags *pflag.FlagSet
	// Args are positional tags. When present they replace every other
	// source of tags.
	Args []string
}

type overlayBinding struct {
	option string
	envs   []string
	flag   string
}

var overlayBindings = []overlayBinding{
	{option: OptionTailnet, envs: []string{"TAILNET", "TAILNET_NAME"}, flag: FlagTailnet},
	{option: OptionClientID, envs: []string{"TAILSCALE_CLIENT_ID"}, flag: FlagClientID},
	{option: OptionClientSecret, envs: []string{"TAILSCALE_CLIENT_SECRET"}, flag: FlagClientSecret},
	{option: OptionTags, envs: []string{"TAILSCALE_TAGS"}, flag: FlagTags},
	{option: OptionGroupPrefix, flag: FlagGroupPrefix},
	{option: OptionAPIBaseURL, envs: []string{"TAILSCALE_API_BASE_URL"}},
	{option: OptionTimeout, flag: FlagTimeout},
	{option: OptionRetries, flag: FlagRetries},
}

const noTokenCacheKey = "no_token_cache"

// Resolve merges defaults, the inventory file, the environment and the
// flags, renders templated options and validates the result. Validation
// problems are returned together as a ConfigurationErrorCollection.
func Resolve(opts ResolveOptions) (*Config, error) {
	cfg, err := Load(opts.ConfigPath, opts.ConfigExplicit)
	if err != nil {
		return nil, err
	}

	v, err := newOverlay(opts.Flags)
	if err != nil {
		return nil, fmt.Errorf("failed to bind configuration flags: %w", err)
	}
	applyOverlay(&cfg, v, opts.Flags)

	if len(opts.Args) > 0 {
		cfg.Tags = splitAll(opts.Args)
		cfg.setSource(OptionTags, SourceArgs)
	}

	var errs ConfigurationErrorCollection
	renderAll(&cfg, &errs)
	validate(&cfg, &errs)
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}

	if dir, err := expandHome(cfg.TokenCache.Dir); err == nil {
		cfg.TokenCache.Dir = dir
	} else {
		return nil, ConfigurationError{
			Option:  OptionTokenCache,
			Source:  cfg.SourceOf(OptionTokenCache),
			Path:    pathFor(&cfg, OptionTokenCache),
			Message: err.Error(),
		}
	}

	logged := cfg.Redacted()
	logging.Debug("Config", "Resolved tailnet=%s client_id=%s client_secret=%s tags=%v group_prefix=%q api=%s token_cache=%t (tailnet from %s, credentials from %s)",
		logged.Tailnet, logged.ClientID, logged.ClientSecret, logged.Tags, logged.GroupPrefix, logged.APIBaseURL, logged.TokenCache.Enabled,
		cfg.SourceOf(OptionTailnet), cfg.SourceOf(OptionClientSecret))
	return &cfg, nil
}

// TokenCacheDir returns the token cache directory from the inventory file
// without requiring credentials. Empty means the default location.
func TokenCacheDir(opts ResolveOptions) (string, error) {
	cfg, err := Load(opts.ConfigPath, opts.ConfigExplicit)
	if err != nil {
		return "", err
	}
	return expandHome(cfg.TokenCache.Dir)
}

func newOverlay(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	for _, b := range overlayBindings {
		if len(b.envs) > 0 {
			if err := v.BindEnv(append([]string{b.option}, b.envs...)...); err != nil {
				return nil, err
			}
		}
		if fs == nil || b.flag == "" {
			continue
		}
		if f := fs.Lookup(b.flag); f != nil {
			if err := v.BindPFlag(b.option, f); err != nil {
				return nil, err
			}
		}
	}
	if fs != nil {
		if f := fs.Lookup(FlagNoTokenCache); f != nil {
			if err := v.BindPFlag(noTokenCacheKey, f); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// applyOverlay copies every option set in the environment or by an
// explicitly changed flag onto cfg. Unchanged flags never override.
func applyOverlay(cfg *Config, v *viper.Viper, fs *pflag.FlagSet) {
	for _, b := range overlayBindings {
		if !v.IsSet(b.option) {
			continue
		}

		source := SourceEnv
		if fs != nil && b.flag != "" && fs.Changed(b.flag) {
			source = SourceFlag
		}

		switch b.option {
		case OptionTailnet:
			cfg.Tailnet = strings.TrimSpace(v.GetString(b.option))
		case OptionClientID:
			cfg.ClientID = strings.TrimSpace(v.GetString(b.option))
		case OptionClientSecret:
			cfg.ClientSecret = strings.TrimSpace(v.GetString(b.option))
		case OptionTags:
			cfg.Tags = toList(v.Get(b.option))
		case OptionGroupPrefix:
			cfg.GroupPrefix = v.GetString(b.option)
		case OptionAPIBaseURL:
			cfg.APIBaseURL = strings.TrimSpace(v.GetString(b.option))
		case OptionTimeout:
			cfg.Timeout = v.GetDuration(b.option)
		case OptionRetries:
			cfg.Retries = v.GetInt(b.option)
		}
		cfg.setSource(b.option, source)
	}

	if v.IsSet(noTokenCacheKey) && v.GetBool(noTokenCacheKey) {
		cfg.TokenCache.Enabled = false
		cfg.setSource(OptionTokenCache, SourceFlag)
	}
}

// toList accepts the shapes viper hands back for a list option: a comma
// separated string from the environment, or a slice from a flag.
func toList(value any) []string {
	switch val := value.(type) {
	case string:
		return splitList(val)
	case []string:
		return splitAll(val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
		return splitAll(items)
	default:
		return []string{}
	}
}

func splitAll(values []string) []string {
	out := []string{}
	for _, value := range values {
		out = append(out, splitList(value)...)
	}
	return out
}

// splitList splits a comma separated list, dropping blanks. Templates are
// returned whole since they may contain commas of their own.
func splitList(value string) []string {
	if IsTemplate(value) {
		return []string{strings.TrimSpace(value)}
	}
	out := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
