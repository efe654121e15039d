// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package brief

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tomtom215/meridian/internal/models"
)

func domainEvents(domain models.Domain, severity models.Severity, n int) []models.Event {
	events := make([]models.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, models.Event{
			ID:       fmt.Sprintf("%s-%s-%d", domain, severity, i),
			Domain:   domain,
			Severity: severity,
			Title:    fmt.Sprintf("%s event %d", domain, i),
			Location: models.Location{Label: fmt.Sprintf("Place %d", i)},
		})
	}
	return events
}

func TestLocalSummaryEmpty(t *testing.T) {
	if got := LocalSummary(nil); got != "No active events to summarize." {
		t.Errorf("LocalSummary(nil) = %q", got)
	}
}

func TestLocalSummaryHistogramAndHighlights(t *testing.T) {
	// 12 events: climate 5, conflict 4, health 3, with 2 criticals.
	var events []models.Event
	events = append(events, domainEvents(models.DomainClimate, models.SeverityMedium, 4)...)
	events = append(events, models.Event{
		ID: "crit-1", Domain: models.DomainClimate, Severity: models.SeverityCritical,
		Title: "Dam failure imminent", Location: models.Location{Label: "Derna, Libya"},
	})
	events = append(events, domainEvents(models.DomainConflict, models.SeverityLow, 3)...)
	events = append(events, models.Event{
		ID: "crit-2", Domain: models.DomainConflict, Severity: models.SeverityCritical,
		Title: "Border shelling escalates", Location: models.Location{Label: "Kharkiv Oblast"},
	})
	events = append(events, domainEvents(models.DomainHealth, models.SeverityInfo, 3)...)

	got := LocalSummary(events)

	if !strings.Contains(got, "12 active events") {
		t.Errorf("summary missing total count: %q", got)
	}
	if !strings.Contains(got, "5 climate, 4 conflict, 3 health") {
		t.Errorf("summary domain clause wrong: %q", got)
	}

	// Exactly the two critical events are named, nothing else: total
	// critical+high is below the highlight cap.
	if !strings.Contains(got, "Dam failure imminent (Derna, Libya)") {
		t.Errorf("summary missing first critical event: %q", got)
	}
	if !strings.Contains(got, "Border shelling escalates (Kharkiv Oblast)") {
		t.Errorf("summary missing second critical event: %q", got)
	}
	if strings.Count(got, "(") != 2 {
		t.Errorf("summary names more than the 2 significant events: %q", got)
	}
}

func TestLocalSummaryCriticalBeforeHigh(t *testing.T) {
	events := []models.Event{
		{ID: "h1", Domain: models.DomainDisaster, Severity: models.SeverityHigh,
			Title: "High one", Location: models.Location{Label: "A"}},
		{ID: "c1", Domain: models.DomainDisaster, Severity: models.SeverityCritical,
			Title: "Critical one", Location: models.Location{Label: "B"}},
		{ID: "h2", Domain: models.DomainDisaster, Severity: models.SeverityHigh,
			Title: "High two", Location: models.Location{Label: "C"}},
		{ID: "c2", Domain: models.DomainDisaster, Severity: models.SeverityCritical,
			Title: "Critical two", Location: models.Location{Label: "D"}},
	}

	got := LocalSummary(events)
	want := "Most significant: Critical one (B); Critical two (D); High one (A)."
	if !strings.Contains(got, want) {
		t.Errorf("highlight clause = %q, want substring %q", got, want)
	}
}

func TestLocalSummaryHighlightCap(t *testing.T) {
	events := domainEvents(models.DomainConflict, models.SeverityCritical, 5)
	got := LocalSummary(events)
	if n := strings.Count(got, "("); n != maxHighlights {
		t.Errorf("summary names %d events, want %d: %q", n, maxHighlights, got)
	}
}

func TestDomainHistogramTieOrder(t *testing.T) {
	var events []models.Event
	events = append(events, domainEvents(models.DomainScience, models.SeverityInfo, 2)...)
	events = append(events, domainEvents(models.DomainClimate, models.SeverityInfo, 2)...)

	// Equal counts order alphabetically for reproducibility.
	if got := domainHistogram(events); got != "2 climate, 2 science" {
		t.Errorf("domainHistogram = %q, want %q", got, "2 climate, 2 science")
	}
}
