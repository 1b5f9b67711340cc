package config

import (
	"errors"
	"fmt"
	"os"

	"tsinventory/pkg/logging"

	"gopkg.in/yaml.v3"
)

var fileOptions = []string{
	OptionPlugin,
	OptionTailnet,
	OptionClientID,
	OptionClientSecret,
	OptionTags,
	OptionGroupPrefix,
	OptionAPIBaseURL,
	OptionTokenURL,
	OptionTimeout,
	OptionRetries,
	OptionTokenCache,
}

// Load reads the inventory file at path on top of the defaults. A missing
// file is only an error when explicit is true.
func Load(path string, explicit bool) (Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.Debug("Config", "No inventory file at %s, using defaults", path)
			return config, nil
		}
		return Config{}, ConfigurationError{
			Option:  "config",
			Source:  SourceFlag,
			Path:    path,
			Message: fmt.Sprintf("cannot read inventory file: %v", err),
			Suggestions: []string{
				"check the path passed to --config",
				"omit --config to use " + DefaultConfigPath,
			},
		}
	}

	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return Config{}, parseError(path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, parseError(path, err)
	}

	config.Path = path
	for _, option := range fileOptions {
		if _, ok := present[option]; ok {
			config.setSource(option, SourceFile)
		}
	}
	for key := range present {
		if !isFileOption(key) {
			logging.Debug("Config", "Ignoring unknown key %q in %s", key, path)
		}
	}
	if config.Tags == nil {
		config.Tags = []string{}
	}

	logging.Debug("Config", "Loaded inventory file %s", path)
	return config, nil
}

func parseError(path string, err error) ConfigurationError {
	return ConfigurationError{
		Source:  SourceFile,
		Path:    path,
		Message: fmt.Sprintf("invalid YAML in %s: %v", path, err),
		Suggestions: []string{
			"tags must be a YAML list",
			"timeout must be a duration such as 10s",
		},
	}
}

func isFileOption(key string) bool {
	for _, option := range fileOptions {
		if option == key {
			return true
		}
	}
	return false
}
