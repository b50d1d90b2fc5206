// Package pipeline implements the futurecast core: topic expansion,
// item enrichment through five independent agents, and the run
// orchestrator that aggregates everything into a sealed RunResult.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"futurecast/internal/llm"
	"futurecast/internal/scenario"
)

// Agent is one stateless enrichment step: a prompt template plus a
// fixed response schema plus a decoder that installs the facet into an
// ItemResult. All five agents share this shape; they hold no state and
// have no ordering dependency on each other.
type Agent struct {
	Name   string
	prompt func(item string) string
	format *llm.ResponseFormat
	apply  func(raw json.RawMessage, out *scenario.ItemResult) error
}

// Enrich runs the agent for one item and installs the facet into out.
func (a Agent) Enrich(ctx context.Context, client llm.Client, item string, out *scenario.ItemResult) error {
	raw, err := client.Generate(ctx, a.prompt(item), a.format)
	if err != nil {
		return llm.Generation(a.Name, err)
	}
	if err := a.apply(raw, out); err != nil {
		return llm.Generation(a.Name, fmt.Errorf("failed to decode %s facet: %w", a.Name, err))
	}
	return nil
}

// stakeholderEnvelope mirrors the wire shape of the stakeholder facet,
// which nests the list under a "stakeholders" key.
type stakeholderEnvelope struct {
	Stakeholders []scenario.Stakeholder `json:"stakeholders"`
}

// EnrichmentAgents returns the five facet agents in their canonical
// order: eta, analogy, stakeholders, innovation, futures.
func EnrichmentAgents() []Agent {
	return []Agent{
		{
			Name:   "timeline_estimate",
			prompt: etaPrompt,
			format: llm.SchemaFormat("timeline_estimate", scenario.TimelineEstimateSchema()),
			apply: func(raw json.RawMessage, out *scenario.ItemResult) error {
				return json.Unmarshal(raw, &out.ETA)
			},
		},
		{
			Name:   "historical_analogy",
			prompt: analogyPrompt,
			format: llm.SchemaFormat("historical_analogy", scenario.HistoricalAnalogySchema()),
			apply: func(raw json.RawMessage, out *scenario.ItemResult) error {
				return json.Unmarshal(raw, &out.Analogy)
			},
		},
		{
			Name:   "stakeholder_set",
			prompt: stakeholdersPrompt,
			format: llm.SchemaFormat("stakeholder_set", scenario.StakeholderSetSchema()),
			apply: func(raw json.RawMessage, out *scenario.ItemResult) error {
				var env stakeholderEnvelope
				if err := json.Unmarshal(raw, &env); err != nil {
					return err
				}
				out.Stakeholders = env.Stakeholders
				return nil
			},
		},
		{
			Name:   "innovation",
			prompt: innovationPrompt,
			format: llm.SchemaFormat("innovation", scenario.InnovationSchema()),
			apply: func(raw json.RawMessage, out *scenario.ItemResult) error {
				return json.Unmarshal(raw, &out.Innovation)
			},
		},
		{
			Name:   "future_timelines",
			prompt: futuresPrompt,
			format: llm.SchemaFormat("future_timelines", scenario.FutureTimelinesSchema()),
			apply: func(raw json.RawMessage, out *scenario.ItemResult) error {
				return json.Unmarshal(raw, &out.FutureTimelines)
			},
		},
	}
}
