package pipeline

import (
	"context"

	"futurecast/internal/llm"
	"futurecast/internal/logging"
	"futurecast/internal/scenario"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// processItem runs all five enrichment agents for one item and
// assembles a complete ItemResult. Fail-fast: the first agent failure
// aborts the item and no partial result is returned. Agents run
// concurrently, each generation call gated by the shared semaphore.
func processItem(ctx context.Context, client llm.Client, agents []Agent, sem *semaphore.Weighted, item string) (scenario.ItemResult, error) {
	result := scenario.ItemResult{Item: item}

	g, gctx := errgroup.WithContext(ctx)
	for _, agent := range agents {
		agent := agent
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			return agent.Enrich(gctx, client, item, &result)
		})
	}

	if err := g.Wait(); err != nil {
		logging.PipelineError("item %q failed: %v", item, err)
		return scenario.ItemResult{}, err
	}

	logging.PipelineDebug("item %q enriched with all %d facets", item, len(agents))
	return result, nil
}
