package twin

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/vtxworks/converter-twin/internal/kinetics"
)

// #region scenario

// Scenario is one what-if variant: a label plus a full simulation request.
// Every scenario carries its own params snapshot, so a learning commit that
// lands mid-run never splits a batch of variants across versions.
type Scenario struct {
	Label   string
	Request kinetics.Request
}

// ScenarioResult pairs a scenario with its outcome. Exactly one of Result
// and Err is meaningful.
type ScenarioResult struct {
	Label  string
	Result kinetics.Result
	Err    error
}

// #endregion scenario

// #region run-all

// RunScenarios simulates every scenario concurrently, bounded to maxParallel
// workers, and returns results in the input order. Individual scenario
// failures (divergence included) are reported per-result, not as a batch
// failure; only context cancellation aborts the whole run.
func RunScenarios(ctx context.Context, scenarios []Scenario, cfg kinetics.Config, maxParallel int) ([]ScenarioResult, error) {
	if maxParallel <= 0 {
		maxParallel = 4
	}

	results := make([]ScenarioResult, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := kinetics.Simulate(sc.Request, cfg)
			results[i] = ScenarioResult{Label: sc.Label, Result: res, Err: err}
			if err != nil {
				log.Printf("[WHATIF] scenario %q failed: %v", sc.Label, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// #endregion run-all
