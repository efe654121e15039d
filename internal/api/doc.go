// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package api provides the HTTP surface: event ingest, event queries,
// anomaly signals, and brief synthesis, routed with Chi.
package api
