// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package detection implements the geo-domain anomaly detector.
//
// Events are bucketed into fixed 10°x10° grid cells per domain. For each
// domain with enough populated cells, a single-pass Welford update over the
// per-cell counts yields the population mean and standard deviation; cells
// whose count lies at least one standard deviation above the mean are
// reported as signals, classified into elevated / significant / critical
// tiers.
//
// Detect operates on one in-memory snapshot per invocation with no
// cross-invocation baseline, and never returns an error: degenerate inputs
// produce an empty result.
package detection
