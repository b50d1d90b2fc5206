package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"futurecast/internal/llm"
	"futurecast/internal/logging"
	"futurecast/internal/scenario"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// State is the orchestrator's run state.
type State int

const (
	StateIdle State = iota
	StateExpandingScenarios
	StateProcessingItems
	StateSealed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExpandingScenarios:
		return "expanding_scenarios"
	case StateProcessingItems:
		return "processing_items"
	case StateSealed:
		return "sealed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures an Orchestrator.
type Options struct {
	// ScenarioCount is the number of scenarios requested from the
	// expander per run.
	ScenarioCount int

	// MaxInFlight caps concurrent generation calls during item
	// processing. 1 yields strictly sequential behavior.
	MaxInFlight int
}

// Orchestrator drives one pipeline run: expansion, enrichment of every
// item of every scenario, and sealing of the RunResult. Results land in
// index-reserved slots so RunResult ordering matches expander ordering
// regardless of completion order.
type Orchestrator struct {
	client        llm.Client
	agents        []Agent
	scenarioCount int
	maxInFlight   int

	mu    sync.Mutex
	state State
}

// New creates an Orchestrator.
func New(client llm.Client, opts Options) *Orchestrator {
	if opts.ScenarioCount < 1 {
		opts.ScenarioCount = 2
	}
	if opts.MaxInFlight < 1 {
		opts.MaxInFlight = 1
	}
	return &Orchestrator{
		client:        client,
		agents:        EnrichmentAgents(),
		scenarioCount: opts.ScenarioCount,
		maxInFlight:   opts.MaxInFlight,
		state:         StateIdle,
	}
}

// State returns the current run state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	logging.PipelineDebug("orchestrator state -> %s", s)
}

// Run executes one end-to-end pipeline run for the topic. On any
// failure the run is abandoned whole: no RunResult is returned and
// in-flight generation calls are cancelled.
func (o *Orchestrator) Run(ctx context.Context, topic string) (*scenario.RunResult, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, &ExpansionError{Reason: "topic must not be empty"}
	}

	timer := logging.StartTimer(logging.CategoryPipeline, "Run")
	defer timer.Stop()

	startedAt := time.Now().UTC()
	logging.Pipeline("run started: topic=%q scenarios=%d max_in_flight=%d", topic, o.scenarioCount, o.maxInFlight)

	o.setState(StateExpandingScenarios)
	scenarios, err := Expand(ctx, o.client, topic, o.scenarioCount)
	if err != nil {
		o.setState(StateFailed)
		return nil, err
	}

	o.setState(StateProcessingItems)

	// Reserve one slot per item up front; concurrent completions write
	// into their own slot, never append.
	slots := make([][]scenario.ItemResult, len(scenarios))
	for i, sc := range scenarios {
		slots[i] = make([]scenario.ItemResult, len(sc.Items))
	}

	sem := semaphore.NewWeighted(int64(o.maxInFlight))
	g, gctx := errgroup.WithContext(ctx)

	for si, sc := range scenarios {
		for ii, item := range sc.Items {
			si, ii, item := si, ii, item
			g.Go(func() error {
				result, err := processItem(gctx, o.client, o.agents, sem, item)
				if err != nil {
					return &RunAbortedError{ScenarioIndex: si, ItemIndex: ii, Item: item, Err: err}
				}
				slots[si][ii] = result
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		o.setState(StateFailed)
		var aborted *RunAbortedError
		if !errors.As(err, &aborted) {
			err = &RunAbortedError{ScenarioIndex: -1, ItemIndex: -1, Err: err}
		}
		logging.PipelineError("run failed: %v", err)
		return nil, err
	}

	run := &scenario.RunResult{
		ID:        uuid.NewString(),
		Topic:     topic,
		Scenarios: make([]scenario.ScenarioResult, len(scenarios)),
		StartedAt: startedAt,
		SealedAt:  time.Now().UTC(),
	}
	for i, sc := range scenarios {
		run.Scenarios[i] = scenario.ScenarioResult{Scenario: sc, Items: slots[i]}
	}

	o.setState(StateSealed)
	logging.Pipeline("run sealed: id=%s scenarios=%d items=%d", run.ID, len(run.Scenarios), run.ItemCount())
	return run, nil
}
