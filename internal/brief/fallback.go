// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package brief

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/meridian/internal/models"
)

// maxHighlights caps how many critical/high events the local summary names.
const maxHighlights = 3

// LocalSummary produces a deterministic, network-free brief. It is the
// system's availability floor: the caller always receives a non-empty,
// informative string even with zero external dependencies available.
func LocalSummary(events []models.Event) string {
	if len(events) == 0 {
		return "No active events to summarize."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tracking %d active events: %s.", len(events), domainHistogram(events))

	if highlights := significantEvents(events); len(highlights) > 0 {
		names := make([]string, 0, len(highlights))
		for _, e := range highlights {
			names = append(names, fmt.Sprintf("%s (%s)", e.Title, e.LocationLabel()))
		}
		fmt.Fprintf(&b, " Most significant: %s.", strings.Join(names, "; "))
	}
	return b.String()
}

// domainHistogram renders per-domain counts as a frequency-sorted comma list,
// e.g. "5 climate, 4 conflict, 3 health". Equal counts order by domain name
// for reproducibility.
func domainHistogram(events []models.Event) string {
	counts := make(map[models.Domain]int)
	for _, e := range events {
		counts[e.Domain]++
	}

	domains := make([]models.Domain, 0, len(counts))
	for d := range counts {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if counts[domains[i]] != counts[domains[j]] {
			return counts[domains[i]] > counts[domains[j]]
		}
		return domains[i] < domains[j]
	})

	parts := make([]string, 0, len(domains))
	for _, d := range domains {
		parts = append(parts, fmt.Sprintf("%d %s", counts[d], d))
	}
	return strings.Join(parts, ", ")
}

// significantEvents returns up to maxHighlights events of severity critical
// or high, ordered by severity rank descending. The sort is stable so ties
// keep their relative input order.
func significantEvents(events []models.Event) []models.Event {
	var picked []models.Event
	for _, e := range events {
		if e.Severity == models.SeverityCritical || e.Severity == models.SeverityHigh {
			picked = append(picked, e)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		return picked[i].Severity.Rank() > picked[j].Severity.Rank()
	})
	if len(picked) > maxHighlights {
		picked = picked[:maxHighlights]
	}
	return picked
}
