package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAMLConfig starts from the values fn returns and overlays configPath.
// An empty path or a missing file keeps the defaults; a file that exists
// but does not parse is an error.
func LoadYAMLConfig[T any](configPath string, fn func() *T) (*T, error) {
	config := fn()

	if configPath == "" {
		return config, nil
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		return config, fmt.Errorf("read config %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	return config, nil
}

// Load reads the app config from path, applies the environment, and
// validates the result
func Load(path string) (*App, error) {
	cfg, err := LoadYAMLConfig(path, Defaults)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
