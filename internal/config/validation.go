package config

import (
	"fmt"
	"net/url"
	"strings"

	"tsinventory/internal/tailscale"
)

type requiredOption struct {
	option string
	value  string
	env    string
	flag   string
}

// validate records every problem with cfg in errs.
func validate(cfg *Config, errs *ConfigurationErrorCollection) {
	if cfg.Plugin != "" && cfg.Plugin != PluginName {
		errs.Add(ConfigurationError{
			Option:  OptionPlugin,
			Source:  cfg.SourceOf(OptionPlugin),
			Path:    pathFor(cfg, OptionPlugin),
			Message: fmt.Sprintf("unsupported plugin %q", cfg.Plugin),
			Suggestions: []string{
				fmt.Sprintf("set plugin: %s", PluginName),
				"remove the plugin key",
			},
		})
	}

	for _, r := range []requiredOption{
		{OptionTailnet, cfg.Tailnet, "TAILNET", FlagTailnet},
		{OptionClientID, cfg.ClientID, "TAILSCALE_CLIENT_ID", FlagClientID},
		{OptionClientSecret, cfg.ClientSecret, "TAILSCALE_CLIENT_SECRET", FlagClientSecret},
	} {
		if strings.TrimSpace(r.value) != "" {
			continue
		}
		errs.Add(ConfigurationError{
			Option:  r.option,
			Source:  cfg.SourceOf(r.option),
			Path:    pathFor(cfg, r.option),
			Message: "is required",
			Suggestions: []string{
				fmt.Sprintf("set %s in the inventory file", r.option),
				fmt.Sprintf("export %s", r.env),
				fmt.Sprintf("pass --%s", r.flag),
			},
		})
	}

	validateTags(cfg, errs)

	validateURL(cfg, errs, OptionAPIBaseURL, cfg.APIBaseURL, true)
	validateURL(cfg, errs, OptionTokenURL, cfg.TokenURL, false)

	if cfg.Timeout <= 0 {
		errs.Add(ConfigurationError{
			Option:      OptionTimeout,
			Source:      cfg.SourceOf(OptionTimeout),
			Path:        pathFor(cfg, OptionTimeout),
			Message:     fmt.Sprintf("must be positive, got %s", cfg.Timeout),
			Suggestions: []string{"use a duration such as 10s"},
		})
	}

	if cfg.Retries < 0 {
		errs.Add(ConfigurationError{
			Option:      OptionRetries,
			Source:      cfg.SourceOf(OptionRetries),
			Path:        pathFor(cfg, OptionRetries),
			Message:     fmt.Sprintf("must not be negative, got %d", cfg.Retries),
			Suggestions: []string{"use 0 to disable retries"},
		})
	}
}

// validateTags skips tags whose template failed to render, since those are
// already reported.
func validateTags(cfg *Config, errs *ConfigurationErrorCollection) {
	if len(errs.ForOption(OptionTags)) > 0 {
		return
	}
	for _, tag := range cfg.Tags {
		if err := validateTag(tag); err != nil {
			errs.Add(ConfigurationError{
				Option:      OptionTags,
				Source:      cfg.SourceOf(OptionTags),
				Path:        pathFor(cfg, OptionTags),
				Message:     err.Error(),
				Suggestions: []string{"tags look like node or tag:node"},
			})
		}
	}
}

func validateTag(tag string) error {
	name := tailscale.TagName(tailscale.NormalizeTag(tag))
	if name == "" {
		return fmt.Errorf("tag %q has no name", tag)
	}
	if strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("tag %q contains whitespace", tag)
	}
	return nil
}

func validateURL(cfg *Config, errs *ConfigurationErrorCollection, option, raw string, required bool) {
	if raw == "" {
		if required {
			errs.AddError(option, cfg.SourceOf(option), "is required")
		}
		return
	}

	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return
	}

	errs.Add(ConfigurationError{
		Option:      option,
		Source:      cfg.SourceOf(option),
		Path:        pathFor(cfg, option),
		Message:     fmt.Sprintf("invalid URL %q", raw),
		Suggestions: []string{"use an absolute http(s) URL such as " + tailscale.DefaultBaseURL},
	})
}
