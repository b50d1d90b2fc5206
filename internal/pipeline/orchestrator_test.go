package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// happyClient serves a fixed scenario list and conforming facets for
// every item.
func happyClient(scenarioList string) *fakeClient {
	return &fakeClient{handler: func(prompt, schemaName string) (json.RawMessage, error) {
		if schemaName == "scenario_list" {
			return json.RawMessage(scenarioList), nil
		}
		return facetResponse(schemaName, itemFromPrompt(prompt))
	}}
}

const gridScenario = `{"scenarios": [{
	"title": "Grid-Scale Storage",
	"description": "Storage unlocks renewable baseload.",
	"items": ["breakthrough battery chemistry", "smart grid rollout"]
}]}`

func TestRun_EndToEnd(t *testing.T) {
	orch := New(happyClient(gridScenario), Options{ScenarioCount: 1, MaxInFlight: 1})

	run, err := orch.Run(context.Background(), "clean energy storage")
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, StateSealed, orch.State())
	assert.Equal(t, "clean energy storage", run.Topic)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.SealedAt.Before(run.StartedAt))

	require.Len(t, run.Scenarios, 1)
	sr := run.Scenarios[0]
	assert.Equal(t, "Grid-Scale Storage", sr.Scenario.Title)
	require.Len(t, sr.Items, 2)

	// Every facet of every item must be present.
	for i, item := range sr.Items {
		assert.Equal(t, sr.Scenario.Items[i], item.Item)
		assert.NotEmpty(t, item.ETA.ETA)
		assert.NotEmpty(t, item.Analogy.Event)
		assert.NotEmpty(t, item.Stakeholders)
		assert.NotEmpty(t, item.Innovation.Idea)
		assert.NotEmpty(t, item.FutureTimelines.Realistic)
	}
}

func TestRun_FailFastOnAgentFailure(t *testing.T) {
	// The second item's stakeholder agent fails: the whole run must be
	// abandoned, not just the offending scenario.
	client := &fakeClient{handler: func(prompt, schemaName string) (json.RawMessage, error) {
		if schemaName == "scenario_list" {
			return json.RawMessage(gridScenario), nil
		}
		if schemaName == "stakeholder_set" && strings.Contains(prompt, "smart grid rollout") {
			return nil, fmt.Errorf("model refusal")
		}
		return facetResponse(schemaName, itemFromPrompt(prompt))
	}}

	orch := New(client, Options{ScenarioCount: 1, MaxInFlight: 2})
	run, err := orch.Run(context.Background(), "clean energy storage")

	require.Error(t, err)
	assert.Nil(t, run, "no partial RunResult may escape a failed run")
	assert.Equal(t, StateFailed, orch.State())

	var aborted *RunAbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, 0, aborted.ScenarioIndex)
	assert.Equal(t, 1, aborted.ItemIndex)
	assert.Equal(t, "smart grid rollout", aborted.Item)
}

func TestRun_ExpansionFailureFailsRun(t *testing.T) {
	client := expanderClient(`{"scenarios": []}`, nil)
	orch := New(client, Options{})

	run, err := orch.Run(context.Background(), "topic")
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Equal(t, StateFailed, orch.State())

	var ee *ExpansionError
	require.ErrorAs(t, err, &ee)
}

func TestRun_EmptyTopic(t *testing.T) {
	orch := New(happyClient(gridScenario), Options{})
	_, err := orch.Run(context.Background(), "  ")

	var ee *ExpansionError
	require.ErrorAs(t, err, &ee)
}

func TestRun_OrderingPreservedUnderConcurrency(t *testing.T) {
	// Many items, jittered completion, wide concurrency cap: results
	// must still land in expander order.
	var items []string
	for i := 0; i < 5; i++ {
		items = append(items, fmt.Sprintf("item-%02d", i))
	}
	list := map[string]interface{}{"scenarios": []map[string]interface{}{
		{"title": "First", "description": "d", "items": items[:3]},
		{"title": "Second", "description": "d", "items": items[2:]},
	}}
	listRaw, err := json.Marshal(list)
	require.NoError(t, err)

	client := &fakeClient{handler: func(prompt, schemaName string) (json.RawMessage, error) {
		if schemaName == "scenario_list" {
			return json.RawMessage(listRaw), nil
		}
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return facetResponse(schemaName, itemFromPrompt(prompt))
	}}

	orch := New(client, Options{ScenarioCount: 2, MaxInFlight: 8})
	run, err := orch.Run(context.Background(), "ordering")
	require.NoError(t, err)

	require.Len(t, run.Scenarios, 2)
	assert.Equal(t, "First", run.Scenarios[0].Scenario.Title)
	assert.Equal(t, "Second", run.Scenarios[1].Scenario.Title)
	for _, sr := range run.Scenarios {
		require.Len(t, sr.Items, len(sr.Scenario.Items))
		for i, item := range sr.Items {
			assert.Equal(t, sr.Scenario.Items[i], item.Item)
			assert.Equal(t, "ETA for "+item.Item, item.ETA.ETA)
		}
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	const limit = 3

	client := &fakeClient{handler: func(prompt, schemaName string) (json.RawMessage, error) {
		if schemaName == "scenario_list" {
			return json.RawMessage(gridScenario), nil
		}
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return facetResponse(schemaName, itemFromPrompt(prompt))
	}}

	orch := New(client, Options{ScenarioCount: 1, MaxInFlight: limit})
	_, err := orch.Run(context.Background(), "bounded")
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(limit), "in-flight generation calls exceeded the cap")
	assert.Greater(t, peak.Load(), int32(0))
}

func TestState_String(t *testing.T) {
	states := map[State]string{
		StateIdle:               "idle",
		StateExpandingScenarios: "expanding_scenarios",
		StateProcessingItems:    "processing_items",
		StateSealed:             "sealed",
		StateFailed:             "failed",
		State(99):               "unknown",
	}
	for s, want := range states {
		assert.Equal(t, want, s.String())
	}
}
