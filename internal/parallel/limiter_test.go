package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	bserrors "github.com/lepinkainen/bookscout/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inFlightTasks builds n tasks that record the peak number running at once.
func inFlightTasks(n int, peak *atomic.Int32) []Task[int] {
	var current atomic.Int32
	tasks := make([]Task[int], n)
	for i := range tasks {
		tasks[i] = Task[int]{
			ID: IntID(i),
			Run: func(ctx context.Context) (int, error) {
				now := current.Add(1)
				for {
					old := peak.Load()
					if now <= old || peak.CompareAndSwap(old, now) {
						break
					}
				}
				// Later tasks finish first to shuffle completion order
				time.Sleep(time.Duration(n-i) * time.Millisecond)
				current.Add(-1)
				return i * 10, nil
			},
		}
	}
	return tasks
}

func TestRunBoundsConcurrencyAndKeepsOrder(t *testing.T) {
	for _, c := range []int{1, 2, 3, 7, 12} {
		t.Run(fmt.Sprintf("c=%d", c), func(t *testing.T) {
			var peak atomic.Int32
			tasks := inFlightTasks(12, &peak)

			outcomes, err := Run(context.Background(), tasks, c)
			require.NoError(t, err)
			require.Len(t, outcomes, len(tasks))

			assert.LessOrEqual(t, int(peak.Load()), c)
			for i, o := range outcomes {
				assert.True(t, o.OK())
				assert.Equal(t, IntID(i), o.ID)
				assert.Equal(t, i*10, o.Value)
			}
		})
	}
}

func TestRunKeepsPoolSaturated(t *testing.T) {
	// One slow task must not hold back the others in its "batch".
	release := make(chan struct{})
	var started atomic.Int32

	tasks := []Task[int]{
		{ID: "slow", Run: func(ctx context.Context) (int, error) {
			started.Add(1)
			<-release
			return 0, nil
		}},
	}
	for i := range 4 {
		tasks = append(tasks, Task[int]{ID: IntID(i), Run: func(ctx context.Context) (int, error) {
			started.Add(1)
			return i, nil
		}})
	}

	done := make(chan []Outcome[int])
	go func() {
		outcomes, _ := Run(context.Background(), tasks, 2)
		done <- outcomes
	}()

	require.Eventually(t, func() bool { return started.Load() == 5 }, time.Second, time.Millisecond)
	close(release)

	outcomes := <-done
	assert.Len(t, outcomes, 5)
}

func TestRunCapturesErrorsAndPanics(t *testing.T) {
	boom := errors.New("page fetch failed")
	tasks := []Task[string]{
		{ID: "1", Run: func(ctx context.Context) (string, error) { return "ok", nil }},
		{ID: "2", Run: func(ctx context.Context) (string, error) { return "", boom }},
		{ID: "3", Run: func(ctx context.Context) (string, error) { panic("bad xml") }},
		{ID: "4"},
	}

	outcomes, err := Run(context.Background(), tasks, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.True(t, outcomes[0].OK())
	assert.ErrorIs(t, outcomes[1].Err, boom)

	var panicErr *PanicError
	require.ErrorAs(t, outcomes[2].Err, &panicErr)
	assert.Equal(t, "3", panicErr.TaskID)
	assert.Equal(t, "bad xml", panicErr.Value)

	assert.Error(t, outcomes[3].Err)
	assert.Equal(t, []string{"2", "3", "4"}, Failed(outcomes))
}

func TestRunRejectsNonPositiveConcurrency(t *testing.T) {
	called := false
	tasks := []Task[int]{{ID: "1", Run: func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	}}}

	for _, c := range []int{0, -1} {
		outcomes, err := Run(context.Background(), tasks, c)
		assert.Nil(t, outcomes)
		assert.True(t, bserrors.IsInvalidArgument(err), "c=%d: %v", c, err)
	}
	assert.False(t, called, "no task may start on invalid input")
}

func TestRunEmptyBatch(t *testing.T) {
	outcomes, err := Run[int](context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}
