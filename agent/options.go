/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/deskrelay/retry"
)

// Option is a functional option for configuring the Loop.
type Option func(*Loop) error

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(l *Loop) error {
		if !strings.HasPrefix(model, "claude-") {
			return fmt.Errorf("model %q does not appear to be a Claude model", model)
		}
		l.model = model
		return nil
	}
}

// WithMaxTokens sets the maximum tokens per model response.
func WithMaxTokens(tokens int64) Option {
	return func(l *Loop) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		l.maxTokens = tokens
		return nil
	}
}

// WithTemperature sets the sampling temperature, 0.0 to 1.0.
func WithTemperature(temp float64) Option {
	return func(l *Loop) error {
		if temp < 0.0 || temp > 1.0 {
			return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", temp)
		}
		l.temperature = temp
		return nil
	}
}

// WithSystemPrompt sets the system instructions for every conversation.
func WithSystemPrompt(system string) Option {
	return func(l *Loop) error {
		if system == "" {
			return errors.New("system prompt cannot be empty")
		}
		l.system = system
		return nil
	}
}

// WithMaxRounds bounds how many tool-use rounds one conversation may take
// before failing with ErrMaxRounds.
func WithMaxRounds(rounds int) Option {
	return func(l *Loop) error {
		if rounds <= 0 {
			return fmt.Errorf("max rounds must be positive, got %d", rounds)
		}
		l.maxRounds = rounds
		return nil
	}
}

// WithRetryConfig sets the retry configuration for transient model API
// errors such as rate limits.
func WithRetryConfig(cfg retry.Config) Option {
	return func(l *Loop) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		l.retryConfig = cfg
		return nil
	}
}
