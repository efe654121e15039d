// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package models

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// CoordinateEpsilon is the threshold for considering coordinates as effectively zero.
// DETERMINISM: A coordinate pair is considered "unknown" (sentinel value 0,0) if
// both latitude and longitude are within this epsilon of zero.
//
// Value rationale: 1e-7 degrees is roughly 1.1cm at the equator, well below the
// precision of any upstream geocoder, but provides reliable float comparison.
const CoordinateEpsilon = 1e-7

// Domain classifies a world event into one of the closed tracked domains.
type Domain string

const (
	DomainHealth   Domain = "health"
	DomainClimate  Domain = "climate"
	DomainConflict Domain = "conflict"
	DomainEconomic Domain = "economic"
	DomainDisaster Domain = "disaster"
	DomainLabor    Domain = "labor"
	DomainScience  Domain = "science"
)

// Domains returns all valid domains in declaration order.
func Domains() []Domain {
	return []Domain{
		DomainHealth,
		DomainClimate,
		DomainConflict,
		DomainEconomic,
		DomainDisaster,
		DomainLabor,
		DomainScience,
	}
}

// Valid reports whether d is a member of the closed domain enum.
func (d Domain) Valid() bool {
	switch d {
	case DomainHealth, DomainClimate, DomainConflict, DomainEconomic,
		DomainDisaster, DomainLabor, DomainScience:
		return true
	}
	return false
}

// Severity indicates how serious an event is. The enum is totally ordered:
// info < low < medium < high < critical. Use Rank for comparisons.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRanks maps each severity to its position in the total order.
var severityRanks = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the position of s in the severity order (info=0 .. critical=4).
// Unknown severities rank below info.
func (s Severity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a member of the closed severity enum.
func (s Severity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// Location is the spatial component of an event. All fields are required for
// the event to be spatially usable; the (0,0) sentinel marks unknown coordinates.
type Location struct {
	Latitude  float64 `json:"latitude" koanf:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" koanf:"longitude" validate:"gte=-180,lte=180"`
	Country   string  `json:"country,omitempty"`
	Region    string  `json:"region,omitempty"`
	Label     string  `json:"label,omitempty"`
}

// Event is the normalized world-event record consumed by the analytics core.
// Source adapters guarantee Domain and Severity are drawn from the closed
// enums and that coordinates, when present, are valid geographic values.
type Event struct {
	ID          string            `json:"id" validate:"required"`
	Timestamp   time.Time         `json:"timestamp" validate:"required"`
	Domain      Domain            `json:"domain" validate:"required,event_domain"`
	Category    string            `json:"category,omitempty"`
	Severity    Severity          `json:"severity" validate:"required,event_severity"`
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description,omitempty"`
	Location    Location          `json:"location"`
	Source      string            `json:"source,omitempty"`
	SourceURL   string            `json:"source_url,omitempty" validate:"omitempty,url"`
	Confidence  float64           `json:"confidence" validate:"gte=0,lte=1"`
	Tags        []string          `json:"tags,omitempty"`
	RelatedIDs  []string          `json:"related_ids,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasCoordinates reports whether the event carries usable coordinates.
// Events without coordinates are excluded from spatial anomaly aggregation
// but still participate in brief synthesis, which is purely textual.
func (e *Event) HasCoordinates() bool {
	return math.Abs(e.Location.Latitude) >= CoordinateEpsilon ||
		math.Abs(e.Location.Longitude) >= CoordinateEpsilon
}

// LocationLabel returns the best human-readable location string for the event:
// display label, then country, then region, then a fixed placeholder.
func (e *Event) LocationLabel() string {
	switch {
	case e.Location.Label != "":
		return e.Location.Label
	case e.Location.Country != "":
		return e.Location.Country
	case e.Location.Region != "":
		return e.Location.Region
	}
	return "unknown location"
}

// validate is the shared validator instance with the enum validators registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Closed-enum validators. Registration only fails for empty tag names.
	_ = v.RegisterValidation("event_domain", func(fl validator.FieldLevel) bool {
		return Domain(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("event_severity", func(fl validator.FieldLevel) bool {
		return Severity(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks the event against the schema: required fields, closed enums,
// coordinate and confidence ranges.
func (e *Event) Validate() error {
	if err := validate.Struct(e); err != nil {
		return fmt.Errorf("invalid event %q: %w", e.ID, err)
	}
	return nil
}
