// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package detection

import (
	"fmt"
	"math"

	"github.com/tomtom215/meridian/internal/models"
)

// Tier classifies how far a cell's event count lies above its domain mean.
type Tier string

const (
	TierElevated    Tier = "elevated"
	TierSignificant Tier = "significant"
	TierCritical    Tier = "critical"
)

// tierRanks orders tiers for sorting (critical highest).
var tierRanks = map[Tier]int{
	TierElevated:    0,
	TierSignificant: 1,
	TierCritical:    2,
}

// Rank returns the tier's sort rank (elevated=0, significant=1, critical=2).
func (t Tier) Rank() int {
	return tierRanks[t]
}

// CellKey identifies a fixed-size geographic grid cell by its integer cell
// indices. A structured key keeps equality and hashing exact; the string form
// is only rendered for signal identifiers.
type CellKey struct {
	LatIdx int
	LngIdx int
}

// cellKeyFor buckets a coordinate pair into its grid cell.
// Floor (not truncation) keeps southern/western hemispheres in distinct cells.
func cellKeyFor(lat, lng, cellSize float64) CellKey {
	return CellKey{
		LatIdx: int(math.Floor(lat / cellSize)),
		LngIdx: int(math.Floor(lng / cellSize)),
	}
}

// Centroid returns the center coordinates of the cell.
func (k CellKey) Centroid(cellSize float64) (lat, lng float64) {
	return float64(k.LatIdx)*cellSize + cellSize/2,
		float64(k.LngIdx)*cellSize + cellSize/2
}

// String renders the cell's south-west corner in whole degrees, matching the
// stable identifier format ("<lat>:<lng>").
func (k CellKey) String(cellSize float64) string {
	return fmt.Sprintf("%d:%d", int(float64(k.LatIdx)*cellSize), int(float64(k.LngIdx)*cellSize))
}

// Signal is one geographic/domain anomaly: a grid cell whose event count for
// a single domain is unusually high relative to that domain's other cells.
//
// Events is a read-only view over records owned by the input snapshot; the
// detector neither copies nor mutates them.
type Signal struct {
	ID          string         `json:"id"`
	Domain      models.Domain  `json:"domain"`
	Label       string         `json:"label"`
	Count       int            `json:"count"`
	Zscore      float64        `json:"zscore"` // rounded to one decimal
	Tier        Tier           `json:"tier"`
	CentroidLat float64        `json:"centroid_lat"`
	CentroidLng float64        `json:"centroid_lng"`
	Region      string         `json:"region"`
	Events      []models.Event `json:"-"`
}

// Config holds the detector's statistical thresholds. The values are fixed
// design constants, not derived from data; they are configurable only so
// tests and future tuning stay one data change away.
type Config struct {
	// CellSizeDegrees is the grid resolution. 10 degrees is a deliberate
	// trade-off: fine enough to separate independent regional clusters,
	// coarse enough that a typical cell accumulates enough samples for
	// variance to be meaningful.
	CellSizeDegrees float64 `koanf:"cell_size_degrees"`

	// MinCells is the minimum populated cells per domain. Variance over a
	// single data point is meaningless.
	MinCells int `koanf:"min_cells"`

	// MinCellEvents is the minimum contributing events per reported cell.
	// Below this, z-scores are statistically unreliable and are suppressed
	// regardless of magnitude.
	MinCellEvents int `koanf:"min_cell_events"`

	// MinStdDev is the floor below which a domain's cell distribution is
	// treated as flat. Prevents reporting spurious anomalies when counts
	// differ only by 1.
	MinStdDev float64 `koanf:"min_stddev"`

	// ZElevated, ZSignificant and ZCritical are the tier thresholds.
	ZElevated    float64 `koanf:"z_elevated"`
	ZSignificant float64 `koanf:"z_significant"`
	ZCritical    float64 `koanf:"z_critical"`
}

// DefaultConfig returns the fixed design constants.
func DefaultConfig() Config {
	return Config{
		CellSizeDegrees: 10,
		MinCells:        2,
		MinCellEvents:   3,
		MinStdDev:       0.5,
		ZElevated:       1.0,
		ZSignificant:    1.5,
		ZCritical:       2.5,
	}
}

// withDefaults fills zero values so a partially-populated Config is usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CellSizeDegrees <= 0 {
		c.CellSizeDegrees = d.CellSizeDegrees
	}
	if c.MinCells <= 0 {
		c.MinCells = d.MinCells
	}
	if c.MinCellEvents <= 0 {
		c.MinCellEvents = d.MinCellEvents
	}
	if c.MinStdDev <= 0 {
		c.MinStdDev = d.MinStdDev
	}
	if c.ZElevated <= 0 {
		c.ZElevated = d.ZElevated
	}
	if c.ZSignificant <= 0 {
		c.ZSignificant = d.ZSignificant
	}
	if c.ZCritical <= 0 {
		c.ZCritical = d.ZCritical
	}
	return c
}
