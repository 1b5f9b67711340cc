package config

import (
	"time"
)

// PluginName is the only accepted value of the file's plugin key.
const PluginName = "tailscale"

// Option names, as used in YAML keys and error messages.
const (
	OptionPlugin       = "plugin"
	OptionTailnet      = "tailnet"
	OptionClientID     = "client_id"
	OptionClientSecret = "client_secret"
	OptionTags         = "tags"
	OptionGroupPrefix  = "group_prefix"
	OptionAPIBaseURL   = "api_base_url"
	OptionTokenURL     = "token_url"
	OptionTimeout      = "timeout"
	OptionRetries      = "retries"
	OptionTokenCache   = "token_cache"
)

// Source identifies the layer an option value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
	SourceArgs    Source = "args"
)

// Config is the resolved tsinventory configuration.
type Config struct {
	Plugin       string           `yaml:"plugin,omitempty"`
	Tailnet      string           `yaml:"tailnet"`
	ClientID     string           `yaml:"client_id"`
	ClientSecret string           `yaml:"client_secret"`
	Tags         []string         `yaml:"tags"`
	GroupPrefix  string           `yaml:"group_prefix,omitempty"`
	APIBaseURL   string           `yaml:"api_base_url,omitempty"`
	TokenURL     string           `yaml:"token_url,omitempty"`
	Timeout      time.Duration    `yaml:"timeout,omitempty"`
	Retries      int              `yaml:"retries"`
	TokenCache   TokenCacheConfig `yaml:"token_cache"`

	// Path is the inventory file that was read, empty if none.
	Path string `yaml:"-"`
	// Sources records where each option's value came from.
	Sources map[string]Source `yaml:"-"`
}

// TokenCacheConfig controls the on-disk OAuth token cache.
type TokenCacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir,omitempty"`
}

// SourceOf returns where option got its value.
func (c *Config) SourceOf(option string) Source {
	if s, ok := c.Sources[option]; ok {
		return s
	}
	return SourceDefault
}

// Redacted returns a copy safe for logging.
func (c Config) Redacted() Config {
	if c.ClientSecret != "" {
		c.ClientSecret = "[REDACTED]"
	}
	c.Tags = append([]string(nil), c.Tags...)
	c.Sources = nil
	return c
}

func (c *Config) setSource(option string, source Source) {
	if c.Sources == nil {
		c.Sources = make(map[string]Source)
	}
	c.Sources[option] = source
}
