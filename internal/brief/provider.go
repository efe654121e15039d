// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

package brief

import "strings"

// Message is one chat message in provider wire order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	roleSystem = "system"
	roleUser   = "user"
)

// Capability describes per-provider message-shape quirks. Adding a new
// provider family is a one-line change to the table below.
type Capability struct {
	// SupportsSystemRole is false for provider families that reject a
	// distinct system-role message; for those the system instruction is
	// merged into the user message per attempt.
	SupportsSystemRole bool
}

// capabilityTable maps model-name prefixes (provider families) to their
// quirks. Longest matching prefix wins.
var capabilityTable = map[string]Capability{
	"google/gemma": {SupportsSystemRole: false},
}

// defaultCapability assumes full OpenAI-compatible message support.
var defaultCapability = Capability{SupportsSystemRole: true}

// capabilityFor looks up the capability descriptor for a model.
func capabilityFor(model string) Capability {
	best := ""
	found := defaultCapability
	for prefix, c := range capabilityTable {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
			found = c
		}
	}
	return found
}

// mergeSystemIntoUser rewrites a two-message instruction for providers that
// reject system-role messages. The system text is prepended to the first user
// message; all other ordering is preserved.
func mergeSystemIntoUser(messages []Message) []Message {
	var system string
	merged := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == roleSystem {
			system = m.Content
			continue
		}
		if m.Role == roleUser && system != "" {
			m = Message{Role: roleUser, Content: system + "\n\n" + m.Content}
			system = ""
		}
		merged = append(merged, m)
	}
	// A system message with no following user message degrades to a user message.
	if system != "" {
		merged = append(merged, Message{Role: roleUser, Content: system})
	}
	return merged
}
