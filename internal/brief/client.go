// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package brief

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// outcomeKind tags the result of a single provider attempt. The cascade loop
// pattern-matches on the tag instead of scattering HTTP status numbers
// through control flow, which keeps the retry policy independently testable.
type outcomeKind int

const (
	// outcomeSuccess carries non-empty generated text.
	outcomeSuccess outcomeKind = iota

	// outcomeRetryable advances the cascade to the next candidate: rate
	// limits, upstream faults, transport errors, malformed responses.
	outcomeRetryable

	// outcomeFatal aborts the entire cascade: the same credential will fail
	// against every remaining model.
	outcomeFatal

	// outcomeEmpty is a successful call that generated no text. Retrying the
	// same malformed request class cannot recover it, so the cascade stops
	// spending provider quota and falls through to the local summary.
	outcomeEmpty
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeSuccess:
		return "success"
	case outcomeRetryable:
		return "retryable"
	case outcomeFatal:
		return "fatal"
	case outcomeEmpty:
		return "empty"
	}
	return "unknown"
}

// attemptOutcome is the classified result of one provider request.
type attemptOutcome struct {
	kind outcomeKind
	text string
	err  error
}

// client speaks the OpenAI-compatible chat completions protocol. A single
// client serves every model in the cascade; OpenRouter-style endpoints
// multiplex providers behind one URL.
type client struct {
	http      *http.Client
	apiURL    string
	apiKey    string
	maxTokens int
}

func newClient(cfg Config) *client {
	return &client{
		http:      &http.Client{Timeout: cfg.RequestTimeout},
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		apiKey:    cfg.APIKey,
		maxTokens: cfg.MaxTokens,
	}
}

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// complete issues exactly one request for the given model and classifies the
// response. It never panics or returns a Go error to the cascade; every
// failure mode maps to an outcome tag.
func (c *client) complete(ctx context.Context, model string, messages []Message) attemptOutcome {
	payload, err := json.Marshal(completionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return attemptOutcome{kind: outcomeRetryable, err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return attemptOutcome{kind: outcomeRetryable, err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return attemptOutcome{kind: outcomeRetryable, err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return attemptOutcome{kind: outcomeFatal, err: fmt.Errorf("authentication failed: %s", resp.Status)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return attemptOutcome{kind: outcomeRetryable, err: fmt.Errorf("rate limited: %s", resp.Status)}
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return attemptOutcome{
			kind: outcomeRetryable,
			err:  fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	var decoded completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return attemptOutcome{kind: outcomeRetryable, err: fmt.Errorf("decode response: %w", err)}
	}
	// Some providers report failures inside a 200 body.
	if decoded.Error != nil && decoded.Error.Message != "" {
		return attemptOutcome{kind: outcomeRetryable, err: fmt.Errorf("provider error: %s", decoded.Error.Message)}
	}

	var text string
	if len(decoded.Choices) > 0 {
		text = strings.TrimSpace(decoded.Choices[0].Message.Content)
	}
	if text == "" {
		return attemptOutcome{kind: outcomeEmpty, err: fmt.Errorf("model %s returned empty text", model)}
	}
	return attemptOutcome{kind: outcomeSuccess, text: text}
}
