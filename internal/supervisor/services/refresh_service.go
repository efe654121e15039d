// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package services

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/meridian/internal/detection"
	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/metrics"
	"github.com/tomtom215/meridian/internal/models"
)

// Snapshotter provides the event snapshot a scan runs over.
type Snapshotter interface {
	Snapshot() ([]models.Event, error)
}

// RefreshService periodically re-runs the anomaly detector over the current
// event snapshot and caches the result. Readers always get the last
// completed scan; a scan failure keeps the previous result in place.
type RefreshService struct {
	store    Snapshotter
	detector *detection.Detector
	interval time.Duration

	mu     sync.RWMutex
	latest []detection.Signal
}

// NewRefreshService creates the scan loop. interval must be positive.
func NewRefreshService(store Snapshotter, detector *detection.Detector, interval time.Duration) *RefreshService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RefreshService{store: store, detector: detector, interval: interval}
}

// Latest returns the signals from the most recent completed scan. The
// returned slice is replaced wholesale on refresh, never mutated.
func (s *RefreshService) Latest() []detection.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Serve implements suture.Service. It scans once on startup so the API has
// data immediately, then on every tick until the context is canceled.
func (s *RefreshService) Serve(ctx context.Context) error {
	s.scan()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scan()
		}
	}
}

func (s *RefreshService) scan() {
	events, err := s.store.Snapshot()
	if err != nil {
		logging.Error().Err(err).Msg("anomaly scan skipped, event snapshot failed")
		return
	}

	start := time.Now()
	signals := s.detector.Detect(events)
	metrics.DetectionDuration.Observe(time.Since(start).Seconds())

	byTier := map[detection.Tier]int{}
	for _, sig := range signals {
		byTier[sig.Tier]++
	}
	for _, tier := range []detection.Tier{detection.TierElevated, detection.TierSignificant, detection.TierCritical} {
		metrics.AnomalySignals.WithLabelValues(string(tier)).Set(float64(byTier[tier]))
	}

	s.mu.Lock()
	s.latest = signals
	s.mu.Unlock()

	logging.Debug().
		Int("events", len(events)).
		Int("signals", len(signals)).
		Dur("duration", time.Since(start)).
		Msg("anomaly scan complete")
}

// String identifies the service in supervisor logs.
func (s *RefreshService) String() string {
	return "anomaly-refresh"
}
