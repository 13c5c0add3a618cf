package parallel

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultMultiplier is the backoff growth factor between retry rounds.
	DefaultMultiplier = 1.5
	// DefaultInitialDelay is the pause before the first retry round.
	DefaultInitialDelay = time.Second
)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy controls Retry. The zero value runs the batch once with no retries.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	// Multiplier defaults to DefaultMultiplier when <= 0; 1 keeps the delay constant.
	Multiplier float64
	// MaxConcurrency bounds each round; <= 0 runs every task of the round at once.
	MaxConcurrency int
	// Sleep defaults to SleepContext. Tests inject an instant recorder.
	Sleep SleepFunc
}

// SleepContext waits for d, returning early with ctx.Err() on cancellation.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs every task, then re-runs only the failed ones up to MaxRetries more
// times, waiting InitialDelay before the first retry and multiplying the wait by
// Multiplier each round. Retried outcomes replace the failures in their original
// slots, so the result lines up with tasks. Failures left after the last round are
// returned as permanent.
func Retry[T any](ctx context.Context, tasks []Task[T], policy RetryPolicy) []Outcome[T] {
	multiplier := policy.Multiplier
	if multiplier <= 0 {
		multiplier = DefaultMultiplier
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	outcomes := runRound(ctx, tasks, policy.MaxConcurrency)
	delay := policy.InitialDelay

	for round := 1; round <= policy.MaxRetries; round++ {
		var pending []int
		for i, o := range outcomes {
			if !o.OK() {
				pending = append(pending, i)
			}
		}
		if len(pending) == 0 {
			break
		}

		slog.Debug("Retrying failed tasks", "round", round, "failed", len(pending), "delay", delay)
		if err := sleep(ctx, delay); err != nil {
			slog.Warn("Retry interrupted", "round", round, "error", err)
			break
		}

		retryTasks := make([]Task[T], len(pending))
		for j, idx := range pending {
			retryTasks[j] = tasks[idx]
		}
		for j, o := range runRound(ctx, retryTasks, policy.MaxConcurrency) {
			outcomes[pending[j]] = o
		}

		delay = time.Duration(float64(delay) * multiplier)
	}

	if failed := Failed(outcomes); len(failed) > 0 {
		slog.Warn("Tasks failed after retries", "failed", failed, "max_retries", policy.MaxRetries)
	}
	return outcomes
}

func runRound[T any](ctx context.Context, tasks []Task[T], maxConcurrency int) []Outcome[T] {
	if maxConcurrency <= 0 || maxConcurrency > len(tasks) {
		maxConcurrency = max(len(tasks), 1)
	}
	// maxConcurrency is positive here so Run cannot fail.
	outcomes, _ := Run(ctx, tasks, maxConcurrency)
	return outcomes
}
