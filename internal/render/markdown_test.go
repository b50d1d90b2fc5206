package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"futurecast/internal/scenario"
)

func sampleRun() *scenario.RunResult {
	return &scenario.RunResult{
		ID:    "run-1",
		Topic: "the future of energy",
		Scenarios: []scenario.ScenarioResult{
			{
				Scenario: scenario.Scenario{
					Title:       "Grid-Scale Storage",
					Description: "Storage becomes the backbone of renewable grids.",
					Items:       []string{"breakthrough battery chemistry"},
				},
				Items: []scenario.ItemResult{
					{
						Item: "breakthrough battery chemistry",
						ETA:  scenario.TimelineEstimate{ETA: "2030-2035"},
						Analogy: scenario.HistoricalAnalogy{
							Event:      "The lithium-ion ramp of the 2010s",
							Similarity: "Cost curves fell faster than forecast",
							Lesson:     "Deployment scale drives chemistry maturity",
						},
						Stakeholders: []scenario.Stakeholder{
							{Name: "Grid operators", Role: "Buyers", Description: "Procure firming capacity"},
							{Name: "Regulators", Role: "Rule setters"},
						},
						Innovation: scenario.Innovation{
							Idea:       "Iron-air seasonal storage farms",
							Potential:  "Weeks of dispatchable renewable power",
							Challenges: "Round-trip efficiency and siting",
						},
						FutureTimelines: scenario.FutureTimelines{
							Optimistic:  "Commercial cells ship by 2030",
							Pessimistic: "Stuck in pilot plants past 2040",
							Realistic:   "Niche deployment through the mid 2030s",
							Wildcard:    "A solid-state patent pool opens up",
						},
					},
				},
			},
		},
	}
}

const sampleDoc = `# Future Scenarios

Based on the topic: "the future of energy"

1 distinct scenario(s) illustrating how this future could unfold.

## Grid-Scale Storage

Storage becomes the backbone of renewable grids.

### breakthrough battery chemistry

**ETA:** 2030-2035

**Future Timelines:**

- **Optimistic:** Commercial cells ship by 2030
- **Pessimistic:** Stuck in pilot plants past 2040
- **Realistic:** Niche deployment through the mid 2030s
- **Wildcard Event:** A solid-state patent pool opens up

**Historical Analogy:**

- **Event:** The lithium-ion ramp of the 2010s
- **Similarity:** Cost curves fell faster than forecast
- **Lesson:** Deployment scale drives chemistry maturity

**Stakeholders:**

- **Grid operators:** Buyers - Procure firming capacity
- **Regulators:** Rule setters

**Innovation - Moonshot Idea:**

Iron-air seasonal storage farms

**Potential Impact:** Weeks of dispatchable renewable power

**Challenges:** Round-trip efficiency and siting

`

func TestMarkdown_FullDocument(t *testing.T) {
	got := Markdown(sampleRun())
	if diff := cmp.Diff(sampleDoc, got); diff != "" {
		t.Errorf("rendered document mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdown_Deterministic(t *testing.T) {
	r := sampleRun()
	assert.Equal(t, Markdown(r), Markdown(r))
}

func TestMarkdown_WildcardOmittedWhenEmpty(t *testing.T) {
	r := sampleRun()
	r.Scenarios[0].Items[0].FutureTimelines.Wildcard = ""

	got := Markdown(r)
	assert.NotContains(t, got, "Wildcard Event")
	assert.Contains(t, got, "- **Realistic:** Niche deployment through the mid 2030s\n\n**Historical Analogy:**")
}

func TestMarkdown_StakeholderWithoutDescription(t *testing.T) {
	got := Markdown(sampleRun())
	assert.Contains(t, got, "- **Regulators:** Rule setters\n")
	assert.NotContains(t, got, "Rule setters - ")
}

func TestMarkdown_EmptyStakeholderList(t *testing.T) {
	r := sampleRun()
	r.Scenarios[0].Items[0].Stakeholders = nil

	got := Markdown(r)
	assert.Contains(t, got, "**Stakeholders:**\n\n\n**Innovation - Moonshot Idea:**")
}

func TestMarkdown_MultipleScenariosInOrder(t *testing.T) {
	r := sampleRun()
	second := r.Scenarios[0]
	second.Scenario.Title = "Distributed Generation"
	r.Scenarios = append(r.Scenarios, second)

	got := Markdown(r)
	first := strings.Index(got, "## Grid-Scale Storage")
	next := strings.Index(got, "## Distributed Generation")
	assert.Greater(t, next, first)
	assert.Contains(t, got, "2 distinct scenario(s)")
}
