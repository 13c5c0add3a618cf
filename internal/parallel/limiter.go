package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/bookscout/internal/errors"
)

// Run executes tasks with at most maxConcurrency in flight. A slot is refilled as
// soon as any task settles, so the pool stays saturated rather than advancing in
// fixed batches. Run returns once every task has settled; errors and panics become
// failed outcomes and never abort the batch.
//
// The only error Run itself returns is InvalidArgument for maxConcurrency <= 0.
func Run[T any](ctx context.Context, tasks []Task[T], maxConcurrency int) ([]Outcome[T], error) {
	if maxConcurrency <= 0 {
		return nil, errors.InvalidArgument("maxConcurrency must be positive, got %d", maxConcurrency)
	}

	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes, nil
	}

	// Plain Group: a failing task must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(maxConcurrency)
	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = settle(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, nil
}
