package domain

import "strings"

// ContextBundle is the retrieved data assembled for one (intent, customer)
// pair. Data values are either []Record (history lists, most recent first) or
// a single Record (e.g. customer_info).
type ContextBundle struct {
	Intent            string            `json:"intent"`
	CustomerID        string            `json:"customer_id"`
	Data              map[string]any    `json:"data"`
	KnowledgeBase     map[string]string `json:"knowledge_base"`
	IntentDescription string            `json:"intent_description"`
}

// Knowledge holds the free-text knowledge blobs loaded once at startup:
// the birth-preparation guidance document and the pipe-delimited intent
// description table.
type Knowledge struct {
	PregnancyGuidance  string
	IntentDescriptions string
}

// DescriptionFor extracts the description column for an intent from the
// pipe-delimited table (`| intent | description | ...`). Returns empty string
// when the intent has no row.
func (k *Knowledge) DescriptionFor(intent string) string {
	if k == nil || intent == "" {
		return ""
	}
	for _, line := range strings.Split(k.IntentDescriptions, "\n") {
		if !strings.Contains(line, intent) || !strings.Contains(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) > 2 {
			return strings.TrimSpace(parts[2])
		}
	}
	return ""
}
