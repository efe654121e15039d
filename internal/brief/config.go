// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package brief

import "time"

// Config holds the cascade configuration. The model list is an explicit,
// externally-supplied ordered value, never hidden package state, so tests can
// run the cascade against mock provider lists.
type Config struct {
	// Models is the ordered candidate list. Worst-case outbound requests per
	// invocation equals the length of this list.
	Models []string `koanf:"models"`

	// APIKey is the credential for the completions endpoint. When empty the
	// cascade short-circuits to the local fallback without any network call.
	APIKey string `koanf:"api_key"`

	// APIURL is the base URL of an OpenAI-compatible API.
	APIURL string `koanf:"api_url"`

	// AttemptDelay is the pause before every attempt after the first,
	// throttling request velocity against shared free-tier rate limits.
	AttemptDelay time.Duration `koanf:"attempt_delay"`

	// TopEvents caps how many events are embedded in the prompt.
	TopEvents int `koanf:"top_events"`

	// MaxTokens is the per-request generation budget.
	MaxTokens int `koanf:"max_tokens"`

	// RequestTimeout bounds a single provider request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// DefaultConfig returns production defaults: free-tier OpenRouter models in
// preference order.
func DefaultConfig() Config {
	return Config{
		Models: []string{
			"meta-llama/llama-3.3-70b-instruct:free",
			"google/gemma-3-27b-it:free",
			"mistralai/mistral-small-3.1-24b-instruct:free",
		},
		APIURL:         "https://openrouter.ai/api/v1",
		AttemptDelay:   2 * time.Second,
		TopEvents:      8,
		MaxTokens:      512,
		RequestTimeout: 30 * time.Second,
	}
}

// withDefaults fills zero values so a partially-populated Config is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.Models) == 0 {
		c.Models = d.Models
	}
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.AttemptDelay == 0 {
		c.AttemptDelay = d.AttemptDelay
	}
	if c.TopEvents <= 0 {
		c.TopEvents = d.TopEvents
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = d.MaxTokens
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	return c
}
