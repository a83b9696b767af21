// SPDX-License-Identifier: MIT
// Copyright (c) 2025 m-rk

package cmd

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/m-rk/neewer-control/pkg/pl81"
)

// Config is the optional YAML configuration file. Every field has a
// working default; the file only needs to name what it overrides.
type Config struct {
	Port          string      `yaml:"port"`
	DefaultKelvin uint32      `yaml:"default_kelvin"`
	Log           LogConfig   `yaml:"log"`
	Serve         ServeConfig `yaml:"serve"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type ServeConfig struct {
	Listen string `yaml:"listen"`
	Token  string `yaml:"token"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		DefaultKelvin: pl81.DefaultKelvin,
		Log:           LogConfig{Level: "info"},
		Serve:         ServeConfig{Listen: ":8517"},
	}
}

// LoadConfig reads a YAML config file, expanding ${VAR} and ${VAR:default}
// references against the environment before parsing. Unset fields fall
// back to the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	config := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.DefaultKelvin == 0 {
		config.DefaultKelvin = pl81.DefaultKelvin
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Serve.Listen == "" {
		config.Serve.Listen = ":8517"
	}

	return config, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or
// ${VAR:default}.
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}
