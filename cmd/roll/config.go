package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sambeau/tumble/pkg/tumble/tumble"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file. Pointers distinguish an
// omitted key from an explicit zero.
type fileConfig struct {
	MaxRerolls          *int  `yaml:"maxRerolls"`
	MaxExpressionLength *int  `yaml:"maxExpressionLength"`
	EnableCaching       *bool `yaml:"enableCaching"`
	CacheSize           *int  `yaml:"cacheSize"`
}

// configPath returns the user config file location.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "tumble", "config.yaml"), nil
}

// loadConfig returns the engine configuration, starting from the
// defaults and applying ~/.config/tumble/config.yaml when it exists.
func loadConfig() (tumble.Config, error) {
	config := tumble.DefaultConfig()

	path, err := configPath()
	if err != nil {
		return config, nil // no home dir, defaults are fine
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("reading config '%s': %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return config, fmt.Errorf("parsing config '%s': %w", path, err)
	}

	if fc.MaxRerolls != nil {
		config.MaxRerolls = *fc.MaxRerolls
	}
	if fc.MaxExpressionLength != nil {
		config.MaxExpressionLength = *fc.MaxExpressionLength
	}
	if fc.EnableCaching != nil {
		config.EnableCaching = *fc.EnableCaching
	}
	if fc.CacheSize != nil {
		config.CacheSize = *fc.CacheSize
	}

	return config, nil
}
