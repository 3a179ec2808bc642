/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package confirm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Registry maps human-readable target names to tracker repository
// identifiers. Targets without a mapping are rejected: no proposal is
// created and the conversation falls through to ordinary handling.
type Registry map[string]string

// Resolve returns the repository for a target name.
func (r Registry) Resolve(targetName string) (string, bool) {
	repo, ok := r[targetName]
	return repo, ok
}

// Config is the data file backing the registry and the matcher phrase
// lists.
type Config struct {
	Targets     Registry `yaml:"targets"`
	Affirmative []string `yaml:"affirmative"`
	Negative    []string `yaml:"negative"`
}

// LoadConfig reads a YAML config file. Absent phrase lists fall back to the
// built-in defaults.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.Affirmative) == 0 {
		cfg.Affirmative = defaultAffirmative
	}
	if len(cfg.Negative) == 0 {
		cfg.Negative = defaultNegative
	}
	return cfg, nil
}

// Matcher builds the yes/no matcher from the config's phrase lists.
func (c Config) Matcher() *Matcher {
	return NewMatcher(c.Affirmative, c.Negative)
}
