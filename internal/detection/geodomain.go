// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/meridian/internal/models"
)

// Detector finds geographic/domain combinations with unusually high event
// density. It is a pure computation over its input snapshot: no I/O, no
// shared mutable state, safe to invoke from any goroutine.
//
// The detector never fails. All degenerate conditions (empty input, single
// cell, flat variance, sparse cells) are handled by omission from the result.
// It is a best-effort advisory layer and must never block the surrounding
// refresh cycle.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector. Zero values in cfg fall back to the
// design-constant defaults.
func NewDetector(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// welford accumulates a single-pass population mean and variance.
// The incremental update avoids storing the full count list and the
// catastrophic cancellation of the naive two-pass formula.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(v float64) {
	w.n++
	delta := v - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (v - w.mean)
}

// stdDev returns the population (not sample) standard deviation.
func (w *welford) stdDev() float64 {
	if w.n == 0 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.n))
}

// scored pairs a signal with its unrounded z-score so the final ordering
// is by raw z, while the reported value is rounded to one decimal.
type scored struct {
	signal Signal
	rawZ   float64
}

// Detect returns anomaly signals for the given snapshot, sorted by tier rank
// descending, then raw z-score descending. An empty result is a valid,
// non-error outcome. Events lacking coordinates are silently skipped.
func (d *Detector) Detect(events []models.Event) []Signal {
	byDomain := d.groupByDomainCell(events)

	var found []scored
	for _, domain := range models.Domains() {
		cells := byDomain[domain]
		if len(cells) < d.cfg.MinCells {
			continue
		}

		keys := sortedCellKeys(cells)

		// Single pass over per-cell counts for this domain.
		var stats welford
		for _, key := range keys {
			stats.add(float64(len(cells[key])))
		}
		stdDev := stats.stdDev()
		if stdDev < d.cfg.MinStdDev {
			continue
		}

		for _, key := range keys {
			members := cells[key]
			if len(members) < d.cfg.MinCellEvents {
				continue
			}
			z := (float64(len(members)) - stats.mean) / stdDev
			if z < d.cfg.ZElevated {
				continue
			}
			found = append(found, scored{
				signal: d.buildSignal(domain, key, members, z),
				rawZ:   z,
			})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		ri, rj := found[i].signal.Tier.Rank(), found[j].signal.Tier.Rank()
		if ri != rj {
			return ri > rj
		}
		if found[i].rawZ != found[j].rawZ {
			return found[i].rawZ > found[j].rawZ
		}
		return found[i].signal.ID < found[j].signal.ID
	})

	signals := make([]Signal, len(found))
	for i, s := range found {
		signals[i] = s.signal
	}
	return signals
}

// groupByDomainCell partitions spatially-usable events by domain, then by
// grid cell, retaining the member events per cell.
func (d *Detector) groupByDomainCell(events []models.Event) map[models.Domain]map[CellKey][]models.Event {
	byDomain := make(map[models.Domain]map[CellKey][]models.Event)
	for _, e := range events {
		if !e.HasCoordinates() {
			continue
		}
		cells := byDomain[e.Domain]
		if cells == nil {
			cells = make(map[CellKey][]models.Event)
			byDomain[e.Domain] = cells
		}
		key := cellKeyFor(e.Location.Latitude, e.Location.Longitude, d.cfg.CellSizeDegrees)
		cells[key] = append(cells[key], e)
	}
	return byDomain
}

// sortedCellKeys returns the cell keys in a fixed order so the Welford pass
// and the emitted signal set are reproducible from the same inputs.
func sortedCellKeys(cells map[CellKey][]models.Event) []CellKey {
	keys := make([]CellKey, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].LatIdx != keys[j].LatIdx {
			return keys[i].LatIdx < keys[j].LatIdx
		}
		return keys[i].LngIdx < keys[j].LngIdx
	})
	return keys
}

func (d *Detector) buildSignal(domain models.Domain, key CellKey, members []models.Event, z float64) Signal {
	lat, lng := key.Centroid(d.cfg.CellSizeDegrees)
	region := regionLabel(members, lat, lng)

	return Signal{
		ID:          fmt.Sprintf("%s:%s", domain, key.String(d.cfg.CellSizeDegrees)),
		Domain:      domain,
		Label:       fmt.Sprintf("%s activity near %s", domain, region),
		Count:       len(members),
		Zscore:      math.Round(z*10) / 10,
		Tier:        d.tierFor(z),
		CentroidLat: lat,
		CentroidLng: lng,
		Region:      region,
		Events:      members,
	}
}

// tierFor classifies an unrounded z-score. Thresholds are inclusive.
func (d *Detector) tierFor(z float64) Tier {
	switch {
	case z >= d.cfg.ZCritical:
		return TierCritical
	case z >= d.cfg.ZSignificant:
		return TierSignificant
	default:
		return TierElevated
	}
}

// regionLabel picks the most frequent non-empty region/country string among
// the cell's events, ties broken by first encounter in source order. When no
// event carries a region string it synthesizes a cardinal-direction label
// from the cell centroid, e.g. "12°N 34°E".
func regionLabel(members []models.Event, centroidLat, centroidLng float64) string {
	counts := make(map[string]int)
	var order []string
	for _, e := range members {
		name := e.Location.Region
		if name == "" {
			name = e.Location.Country
		}
		if name == "" {
			continue
		}
		if counts[name] == 0 {
			order = append(order, name)
		}
		counts[name]++
	}

	best := ""
	for _, name := range order {
		if best == "" || counts[name] > counts[best] {
			best = name
		}
	}
	if best != "" {
		return best
	}
	return cardinalLabel(centroidLat, centroidLng)
}

// cardinalLabel renders a centroid as whole-degree cardinal coordinates.
func cardinalLabel(lat, lng float64) string {
	ns, ew := "N", "E"
	if lat < 0 {
		ns = "S"
	}
	if lng < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.0f°%s %.0f°%s", math.Abs(lat), ns, math.Abs(lng), ew)
}
