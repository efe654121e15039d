// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package brief synthesizes a short natural-language situation brief from the
// current event snapshot.
//
// Synthesis walks an ordered cascade of candidate models behind an
// OpenAI-compatible chat completions endpoint, one request per attempt, with a
// fixed inter-attempt delay to throttle shared free-tier quotas. Attempt
// outcomes are explicit tags (success, retryable, fatal, empty) so the retry
// policy stays independent of HTTP status plumbing: auth failures abort the
// whole cascade, rate limits and upstream faults advance to the next model,
// and empty generations stop further provider spend.
//
// When the cascade cannot produce text — no credential, exhaustion, or an
// abort — a deterministic local summary is returned instead. The caller
// always receives a usable brief; this package never returns an error.
package brief
