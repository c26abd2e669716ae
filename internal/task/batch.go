package task

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// TriggerAndWait runs fn over every payload concurrently and blocks until all
// invocations complete. The returned slice is ordered to match the input; each
// element must be checked for Ok before its Output is used.
//
// Members of the batch are unordered relative to each other, but the batch as
// a whole is a barrier: TriggerAndWait does not return until every member has
// resolved, so a stage placed after it never overlaps with the batch.
func TriggerAndWait[P, R any](ctx context.Context, payloads []P, fn func(ctx context.Context, payload P) (R, error)) []Result[R] {
	results := make([]Result[R], len(payloads))

	g, gctx := errgroup.WithContext(ctx)
	for i, payload := range payloads {
		g.Go(func() error {
			out, err := fn(gctx, payload)
			if err != nil {
				results[i] = ErrResult[R](err)
				// Do not fail the group: the whole batch runs to resolution
				// so the caller sees every member's outcome.
				return nil
			}
			results[i] = OkResult(out)
			return nil
		})
	}
	// Members never return errors; Wait only synchronizes.
	_ = g.Wait()

	return results
}

// CollectOutputs extracts the outputs of a batch, failing on the first non-ok
// member with an error naming the stage and the failing member's position.
// Partial successes are discarded; a failed batch commits nothing downstream.
func CollectOutputs[R any](stage string, results []Result[R]) ([]R, error) {
	outputs := make([]R, len(results))
	for i, res := range results {
		if !res.Ok {
			return nil, fmt.Errorf("%s failed for item %d of %d: %w", stage, i+1, len(results), res.Err)
		}
		outputs[i] = res.Output
	}
	return outputs, nil
}

// FireAndForget submits every task to the dispatcher without waiting for
// completion. Used when the caller does not need the outputs to proceed, e.g.
// kicking off distillation runs after a brand-chunk upload. Submission errors
// (full queue, store failure) are still returned because an unsubmitted task
// would be silently lost.
func FireAndForget(ctx context.Context, d Dispatcher, tasks []Task) error {
	for _, t := range tasks {
		if err := d.Submit(ctx, t); err != nil {
			return fmt.Errorf("failed to dispatch %s task: %w", t.Type(), err)
		}
	}
	return nil
}
