// Package scenario defines the data model of a futurecast run and the
// JSON schema contracts enforced at every pipeline step.
package scenario

import "time"

// Item count bounds enforced on every expanded scenario.
const (
	MinItems = 3
	MaxItems = 5
)

// MaxStakeholders bounds the stakeholder set requested per item.
const MaxStakeholders = 5

// Scenario is one elaboration of the run topic, produced once per run
// by the expander and immutable thereafter.
type Scenario struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Items       []string `json:"items"`
}

// TimelineEstimate is the ETA facet.
type TimelineEstimate struct {
	ETA string `json:"eta"`
}

// HistoricalAnalogy relates an item to a past event.
type HistoricalAnalogy struct {
	Event      string `json:"event"`
	Similarity string `json:"similarity"`
	Lesson     string `json:"lesson"`
}

// Stakeholder is one affected party identified for an item.
type Stakeholder struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
}

// Innovation is the moonshot-idea facet.
type Innovation struct {
	Idea       string `json:"idea"`
	Potential  string `json:"potential"`
	Challenges string `json:"challenges"`
}

// FutureTimelines projects an item along three mandatory tracks plus an
// optional wildcard event.
type FutureTimelines struct {
	Optimistic  string `json:"optimistic"`
	Pessimistic string `json:"pessimistic"`
	Realistic   string `json:"realistic"`
	Wildcard    string `json:"wildcard,omitempty"`
}

// ItemResult is one fully enriched item. All five facets must be
// populated before an ItemResult leaves the item processor; a partial
// result never reaches the renderer.
type ItemResult struct {
	Item            string            `json:"item"`
	ETA             TimelineEstimate  `json:"eta"`
	Analogy         HistoricalAnalogy `json:"analogy"`
	Stakeholders    []Stakeholder     `json:"stakeholders"`
	Innovation      Innovation        `json:"innovation"`
	FutureTimelines FutureTimelines   `json:"futureTimelines"`
}

// ScenarioResult pairs a scenario with its enriched items, in the same
// order as Scenario.Items.
type ScenarioResult struct {
	Scenario Scenario     `json:"scenario"`
	Items    []ItemResult `json:"items"`
}

// RunResult is the sealed output of one pipeline run. Scenarios appear
// in expander order regardless of internal completion order.
type RunResult struct {
	ID        string           `json:"id"`
	Topic     string           `json:"topic"`
	Scenarios []ScenarioResult `json:"scenarios"`
	StartedAt time.Time        `json:"startedAt"`
	SealedAt  time.Time        `json:"sealedAt"`
}

// ItemCount returns the total number of enriched items across all
// scenarios of the run.
func (r *RunResult) ItemCount() int {
	n := 0
	for _, sr := range r.Scenarios {
		n += len(sr.Items)
	}
	return n
}
