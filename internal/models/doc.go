// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package models defines the normalized world-event schema shared by the
// ingest API, the anomaly detector, and the brief synthesizer.
//
// The Event record is the single data contract between source adapters and
// the analytics core. Domain and Severity are closed enums; Category and
// Tags form the open taxonomy. Coordinates use the (0,0) sentinel for
// "unknown", compared with an epsilon rather than direct float equality.
package models
