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

// systemInstruction constrains tone, length and format of the generated brief.
const systemInstruction = "You are an analyst writing a situation brief from normalized " +
	"world-event data. Write 2-4 plain sentences: lead with the most severe " +
	"developments, group related items, and name locations. No headers, no " +
	"bullet points, no speculation beyond the provided events."

// topEvents selects the n highest-priority events: severity descending, then
// timestamp descending. The sort is stable so equal events keep input order.
func topEvents(events []models.Event, n int) []models.Event {
	selected := make([]models.Event, len(events))
	copy(selected, events)
	sort.SliceStable(selected, func(i, j int) bool {
		ri, rj := selected[i].Severity.Rank(), selected[j].Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return selected[i].Timestamp.After(selected[j].Timestamp)
	})
	if len(selected) > n {
		selected = selected[:n]
	}
	return selected
}

// buildMessages constructs the two-message instruction. Each event is
// projected to exactly three fields (title, severity, location label) to
// bound request size and avoid leaking unnecessary fields to a third-party
// provider.
func buildMessages(events []models.Event, contextLabel, anomalyContext string, topN int) []Message {
	var b strings.Builder
	if contextLabel != "" {
		fmt.Fprintf(&b, "Context: %s\n\n", contextLabel)
	}
	b.WriteString("Current events:\n")
	for _, e := range topEvents(events, topN) {
		fmt.Fprintf(&b, "- [%s] %s (%s)\n", e.Severity, e.Title, e.LocationLabel())
	}
	if anomalyContext != "" {
		fmt.Fprintf(&b, "\nDetected anomalies:\n%s\n", anomalyContext)
	}
	b.WriteString("\nWrite the situation brief.")

	return []Message{
		{Role: roleSystem, Content: systemInstruction},
		{Role: roleUser, Content: b.String()},
	}
}
