package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"TAILNET",
	"TAILNET_NAME",
	"TAILSCALE_CLIENT_ID",
	"TAILSCALE_CLIENT_SECRET",
	"TAILSCALE_TAGS",
	"TAILSCALE_API_BASE_URL",
}

// isolateEnv blanks every variable Resolve reads. Empty variables are
// treated as unset.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnvVars {
		t.Setenv(name, "")
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

const baseFile = `
plugin: tailscale
tailnet: file.example.com
client_id: file-id
client_secret: file-secret
tags: [node]
retries: 5
`

func TestResolve_FileOnly(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, baseFile)

	cfg, err := Resolve(OptionsFromFlags(newFlags(t, "--config", path), nil))
	require.NoError(t, err)

	assert.Equal(t, "file.example.com", cfg.Tailnet)
	assert.Equal(t, []string{"node"}, cfg.Tags)
	// An unchanged --retries flag must not override the file.
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, SourceFile, cfg.SourceOf(OptionRetries))
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.TokenCache.Enabled)
}

func TestResolve_Precedence(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, baseFile)

	t.Setenv("TAILNET", "env.example.com")
	t.Setenv("TAILSCALE_CLIENT_ID", "env-id")
	t.Setenv("TAILSCALE_TAGS", "web, db ,")

	fs := newFlags(t, "--config", path, "--client-id", "flag-id", "--retries", "1", "--timeout", "2s")
	cfg, err := Resolve(OptionsFromFlags(fs, nil))
	require.NoError(t, err)

	assert.Equal(t, "env.example.com", cfg.Tailnet)
	assert.Equal(t, SourceEnv, cfg.SourceOf(OptionTailnet))

	assert.Equal(t, "flag-id", cfg.ClientID)
	assert.Equal(t, SourceFlag, cfg.SourceOf(OptionClientID))

	assert.Equal(t, "file-secret", cfg.ClientSecret)
	assert.Equal(t, SourceFile, cfg.SourceOf(OptionClientSecret))

	assert.Equal(t, []string{"web", "db"}, cfg.Tags)
	assert.Equal(t, SourceEnv, cfg.SourceOf(OptionTags))

	assert.Equal(t, 1, cfg.Retries)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
}

func TestResolve_TailnetNameFallback(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TAILNET_NAME", "fallback.example.com")
	t.Setenv("TAILSCALE_CLIENT_ID", "id")
	t.Setenv("TAILSCALE_CLIENT_SECRET", "secret")

	cfg, err := Resolve(ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback.example.com", cfg.Tailnet)

	t.Setenv("TAILNET", "primary.example.com")
	cfg, err = Resolve(ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, "primary.example.com", cfg.Tailnet)
}

func TestResolve_TagSources(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, baseFile)
	t.Setenv("TAILSCALE_TAGS", "env")

	t.Run("flag beats env", func(t *testing.T) {
		cfg, err := Resolve(OptionsFromFlags(newFlags(t, "-c", path, "--tags", "a,tag:b"), nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "tag:b"}, cfg.Tags)
		assert.Equal(t, SourceFlag, cfg.SourceOf(OptionTags))
	})

	t.Run("positional args beat everything", func(t *testing.T) {
		cfg, err := Resolve(OptionsFromFlags(newFlags(t, "-c", path, "--tags", "a"), []string{"x", "y,z"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, cfg.Tags)
		assert.Equal(t, SourceArgs, cfg.SourceOf(OptionTags))
	})
}

func TestResolve_EmptyTagsAllowed(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, "tailnet: t\nclient_id: i\nclient_secret: s\n")

	cfg, err := Resolve(ResolveOptions{ConfigPath: path, ConfigExplicit: true})
	require.NoError(t, err)
	assert.Empty(t, cfg.Tags)
}

func TestResolve_NoTokenCache(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, baseFile)

	cfg, err := Resolve(OptionsFromFlags(newFlags(t, "-c", path, "--no-token-cache"), nil))
	require.NoError(t, err)
	assert.False(t, cfg.TokenCache.Enabled)
	assert.Equal(t, SourceFlag, cfg.SourceOf(OptionTokenCache))
}

func TestResolve_ExpandsTokenCacheHome(t *testing.T) {
	isolateEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeInventoryFile(t, baseFile+"token_cache:\n  dir: ~/tokens\n")

	cfg, err := Resolve(ResolveOptions{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "tokens"), cfg.TokenCache.Dir)
}

func TestResolve_MissingRequiredOptions(t *testing.T) {
	isolateEnv(t)

	_, err := Resolve(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "none.yaml")})
	require.Error(t, err)

	var errs ConfigurationErrorCollection
	require.True(t, errors.As(err, &errs))
	assert.Equal(t, 3, errs.Count())
	require.Len(t, errs.ForOption(OptionTailnet), 1)
	require.Len(t, errs.ForOption(OptionClientID), 1)
	require.Len(t, errs.ForOption(OptionClientSecret), 1)

	tailnetErr := errs.ForOption(OptionTailnet)[0]
	assert.Equal(t, SourceDefault, tailnetErr.Source)
	assert.Contains(t, tailnetErr.Suggestions, "export TAILNET")
	assert.Contains(t, tailnetErr.Suggestions, "pass --tailnet")
}

func TestResolve_InvalidValues(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, `
plugin: aws_ec2
tailnet: t
client_id: i
client_secret: s
tags: ["tag:", "ok"]
api_base_url: not a url
timeout: 0s
retries: -1
`)

	_, err := Resolve(ResolveOptions{ConfigPath: path, ConfigExplicit: true})
	require.Error(t, err)

	var errs ConfigurationErrorCollection
	require.True(t, errors.As(err, &errs))

	for _, option := range []string{OptionPlugin, OptionTags, OptionAPIBaseURL, OptionTimeout, OptionRetries} {
		found := errs.ForOption(option)
		if assert.Len(t, found, 1, "option %s", option) {
			assert.Equal(t, SourceFile, found[0].Source)
			assert.Equal(t, path, found[0].Path)
		}
	}
	assert.Empty(t, errs.ForOption(OptionTailnet))
}

func TestResolve_RendersTemplates(t *testing.T) {
	isolateEnv(t)
	secretFile := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(secretFile, []byte("from-file\n"), 0600))
	t.Setenv("TS_TEST_ID", "templated-id")
	t.Setenv("TS_TEST_TAGS", "a,b")

	path := writeInventoryFile(t, `
tailnet: '{{ "Example.COM" | lower }}'
client_id: '{{ env "TS_TEST_ID" }}'
client_secret: '{{ readFile "`+secretFile+`" | trim }}'
tags:
  - '{{ env "TS_TEST_TAGS" }}'
  - plain
`)

	cfg, err := Resolve(ResolveOptions{ConfigPath: path, ConfigExplicit: true})
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.Tailnet)
	assert.Equal(t, "templated-id", cfg.ClientID)
	assert.Equal(t, "from-file", cfg.ClientSecret)
	assert.Equal(t, []string{"a", "b", "plain"}, cfg.Tags)
}

func TestResolve_TemplateErrorNamesOption(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, `
tailnet: t
client_id: i
client_secret: '{{ fail "secret not mounted" }}'
`)

	_, err := Resolve(ResolveOptions{ConfigPath: path, ConfigExplicit: true})
	require.Error(t, err)

	var errs ConfigurationErrorCollection
	require.True(t, errors.As(err, &errs))
	found := errs.ForOption(OptionClientSecret)
	require.NotEmpty(t, found)
	assert.Contains(t, found[0].Message, "secret not mounted")
}

func TestConfig_Redacted(t *testing.T) {
	cfg := Config{ClientSecret: "tskey-secret", Tags: []string{"a"}}
	redacted := cfg.Redacted()

	assert.Equal(t, "[REDACTED]", redacted.ClientSecret)
	redacted.Tags[0] = "changed"
	assert.Equal(t, "a", cfg.Tags[0])
}

func TestTokenCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := TokenCacheDir(ResolveOptions{ConfigPath: writeInventoryFile(t, "token_cache:\n  dir: ~/cache\n")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "cache"), dir)

	// No credentials are needed.
	dir, err = TokenCacheDir(ResolveOptions{ConfigPath: filepath.Join(t.TempDir(), "none.yaml")})
	require.NoError(t, err)
	assert.Empty(t, dir)
}

func TestResolve_TagTemplateErrorReportedOnce(t *testing.T) {
	isolateEnv(t)
	path := writeInventoryFile(t, `
tailnet: t
client_id: i
client_secret: s
tags: ['{{ fail "tags not mounted" }}']
`)

	_, err := Resolve(ResolveOptions{ConfigPath: path, ConfigExplicit: true})
	require.Error(t, err)

	var errs ConfigurationErrorCollection
	require.True(t, errors.As(err, &errs))
	found := errs.ForOption(OptionTags)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Message, "tags not mounted")
}
