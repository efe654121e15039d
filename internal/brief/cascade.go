// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package brief

import (
	"context"
	"time"

	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/models"
)

// Provenance marks how a brief was produced.
type Provenance string

const (
	// ProvenanceAI means a provider in the cascade generated the text.
	ProvenanceAI Provenance = "ai"

	// ProvenanceLocal means the deterministic fallback produced the text.
	ProvenanceLocal Provenance = "local"
)

// Result is a finished brief. Created fresh on each invocation and never
// mutated; callers own any caching or staleness policy.
type Result struct {
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
}

// Synthesizer runs the brief synthesis cascade. Each invocation is
// independent and idempotent given the same snapshot; attempts execute
// strictly one at a time, in cascade order. Concurrent multi-model racing is
// excluded on purpose: the goal is to minimize total request volume against
// shared free quotas, not to minimize latency.
type Synthesizer struct {
	cfg    Config
	client *client

	// sleep is swapped in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSynthesizer creates a synthesizer. Zero values in cfg fall back to
// production defaults.
func NewSynthesizer(cfg Config) *Synthesizer {
	cfg = cfg.withDefaults()
	return &Synthesizer{
		cfg:    cfg,
		client: newClient(cfg),
		sleep:  sleepCtx,
	}
}

// Synthesize produces a brief for the snapshot. It always succeeds: every
// failure path resolves to the deterministic local summary, never an error.
// Cancellation is honored between attempts, not mid-request; an in-flight
// call is allowed to complete or time out naturally.
func (s *Synthesizer) Synthesize(ctx context.Context, events []models.Event, contextLabel, anomalyContext string) Result {
	if s.cfg.APIKey == "" {
		logging.Debug().Msg("no text-generation credential, using local summary")
		metrics.BriefsGenerated.WithLabelValues(string(ProvenanceLocal)).Inc()
		return Result{
			Text:       "AI briefs are disabled: add a text-generation API credential to enable them. " + LocalSummary(events),
			Provenance: ProvenanceLocal,
		}
	}

	messages := buildMessages(events, contextLabel, anomalyContext, s.cfg.TopEvents)

cascade:
	for i, model := range s.cfg.Models {
		if i > 0 {
			if err := s.sleep(ctx, s.cfg.AttemptDelay); err != nil {
				logging.Debug().Msg("brief synthesis canceled between attempts")
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		attempt := messages
		if !capabilityFor(model).SupportsSystemRole {
			attempt = mergeSystemIntoUser(messages)
		}

		outcome := s.client.complete(ctx, model, attempt)
		metrics.CascadeAttempts.WithLabelValues(outcome.kind.String()).Inc()

		switch outcome.kind {
		case outcomeSuccess:
			logging.Info().Str("model", model).Msg("brief generated")
			metrics.BriefsGenerated.WithLabelValues(string(ProvenanceAI)).Inc()
			return Result{Text: outcome.text, Provenance: ProvenanceAI}
		case outcomeFatal:
			// The same credential will fail against every remaining model.
			logging.Warn().Err(outcome.err).Str("model", model).Msg("cascade aborted")
			break cascade
		case outcomeEmpty:
			// Not recoverable by retrying the same request class; stop
			// spending quota and fall through to the local summary.
			logging.Warn().Err(outcome.err).Str("model", model).Msg("empty generation, stopping cascade")
			break cascade
		default:
			logging.Warn().Err(outcome.err).Str("model", model).Msg("attempt failed, trying next model")
		}
	}

	metrics.BriefsGenerated.WithLabelValues(string(ProvenanceLocal)).Inc()
	return Result{Text: LocalSummary(events), Provenance: ProvenanceLocal}
}

// sleepCtx waits for d or until ctx is canceled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
