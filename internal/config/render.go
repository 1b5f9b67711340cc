package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// IsTemplate reports whether value should be rendered before use.
func IsTemplate(value string) bool {
	return strings.Contains(value, "{{")
}

// Render renders value as a Go template with the Sprig functions when it
// contains a template action, and returns it unchanged otherwise.
func Render(option, value string) (string, error) {
	if !IsTemplate(value) {
		return value, nil
	}

	tmpl, err := template.New(option).
		Funcs(funcMap()).
		Option("missingkey=error").
		Parse(value)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// funcMap is Sprig plus readFile, which Sprig leaves out.
func funcMap() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["readFile"] = func(path string) (string, error) {
		data, err := os.ReadFile(path)
		return string(data), err
	}
	return funcs
}

// renderAll renders every templatable option in place.
func renderAll(cfg *Config, errs *ConfigurationErrorCollection) {
	renderOne := func(option string, value *string) {
		out, err := Render(option, *value)
		if err != nil {
			errs.Add(ConfigurationError{
				Option:  option,
				Source:  cfg.SourceOf(option),
				Path:    pathFor(cfg, option),
				Message: err.Error(),
				Suggestions: []string{
					`check the template syntax, e.g. {{ env "TS_OAUTH_SECRET" }}`,
				},
			})
			return
		}
		*value = out
	}

	renderOne(OptionTailnet, &cfg.Tailnet)
	renderOne(OptionClientID, &cfg.ClientID)
	renderOne(OptionClientSecret, &cfg.ClientSecret)

	tags := make([]string, 0, len(cfg.Tags))
	for i := range cfg.Tags {
		renderOne(OptionTags, &cfg.Tags[i])
		// A template may expand to a comma separated list.
		tags = append(tags, splitList(cfg.Tags[i])...)
	}
	cfg.Tags = tags
}

func pathFor(cfg *Config, option string) string {
	if cfg.SourceOf(option) == SourceFile {
		return cfg.Path
	}
	return ""
}
