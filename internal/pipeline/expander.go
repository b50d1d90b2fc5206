package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"futurecast/internal/llm"
	"futurecast/internal/logging"
	"futurecast/internal/scenario"
)

// scenarioListEnvelope mirrors the wire shape of the expander response.
type scenarioListEnvelope struct {
	Scenarios []scenario.Scenario `json:"scenarios"`
}

// Expand maps a topic to an ordered list of scenarios with one
// generation call. A bare scenario object response is normalized into a
// one-element list; zero scenarios or malformed items fail the run.
func Expand(ctx context.Context, client llm.Client, topic string, count int) ([]scenario.Scenario, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, &ExpansionError{Reason: "topic must not be empty"}
	}
	if count < 1 {
		count = 1
	}

	format := llm.SchemaFormat("scenario_list", scenario.ScenarioListSchema())
	raw, err := client.Generate(ctx, expandPrompt(topic, count), format)
	if err != nil {
		return nil, &ExpansionError{Reason: "generation call failed", Err: err}
	}

	scenarios, err := decodeScenarios(raw)
	if err != nil {
		return nil, &ExpansionError{Reason: "malformed scenario list", Err: err}
	}
	if len(scenarios) == 0 {
		return nil, &ExpansionError{Reason: "model returned zero scenarios"}
	}

	for i, sc := range scenarios {
		if err := validateScenario(sc); err != nil {
			return nil, &ExpansionError{Reason: fmt.Sprintf("scenario %d invalid", i), Err: err}
		}
	}

	logging.Pipeline("expanded topic %q into %d scenario(s)", topic, len(scenarios))
	return scenarios, nil
}

// decodeScenarios accepts the contractual {"scenarios": [...]} envelope
// but also tolerates two known loosenesses of schema enforcement: a
// bare array, and a single bare scenario object. The bare-object case
// is coerced into a one-element list and logged so the upstream schema
// problem stays visible.
func decodeScenarios(raw json.RawMessage) ([]scenario.Scenario, error) {
	trimmed := strings.TrimSpace(string(raw))

	if strings.HasPrefix(trimmed, "[") {
		var list []scenario.Scenario
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var env scenarioListEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Scenarios != nil {
		return env.Scenarios, nil
	}

	var single scenario.Scenario
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	if single.Title == "" && len(single.Items) == 0 {
		return nil, fmt.Errorf("response is neither a scenario list nor a scenario object")
	}
	logging.PipelineWarn("expander returned a bare scenario object; coercing to a one-element list")
	return []scenario.Scenario{single}, nil
}

// validateScenario rejects scenarios no document section could be
// built from. The [MinItems,MaxItems] bound is part of the schema
// contract and is enforced by the generation capability, not re-checked
// here.
func validateScenario(sc scenario.Scenario) error {
	if strings.TrimSpace(sc.Title) == "" {
		return fmt.Errorf("empty title")
	}
	if len(sc.Items) == 0 {
		return fmt.Errorf("no items")
	}
	for i, item := range sc.Items {
		if strings.TrimSpace(item) == "" {
			return fmt.Errorf("item %d is empty", i)
		}
	}
	return nil
}
