// Package parallel runs batches of deferred fetches with bounded concurrency and
// re-runs failed ones with exponential backoff. Outcomes always come back in
// submission order, whatever order the tasks finish in.
package parallel

import (
	"context"
	"fmt"
	"strconv"
)

// Task is a deferred computation. ID identifies the unit of work (a page number
// or a region code) so results and failures can be attributed after the fact.
type Task[T any] struct {
	ID  string
	Run func(ctx context.Context) (T, error)
}

// Outcome is the settled result of a Task.
type Outcome[T any] struct {
	ID    string
	Value T
	Err   error
}

// OK reports whether the task succeeded.
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	TaskID string
	Value  any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.TaskID, e.Value)
}

// IntID formats a page number as a task ID.
func IntID(n int) string {
	return strconv.Itoa(n)
}

// Failed returns the IDs of failed outcomes, in order.
func Failed[T any](outcomes []Outcome[T]) []string {
	var ids []string
	for _, o := range outcomes {
		if !o.OK() {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func settle[T any](ctx context.Context, task Task[T]) (out Outcome[T]) {
	out.ID = task.ID
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out.Value = zero
			out.Err = &PanicError{TaskID: task.ID, Value: r}
		}
	}()

	if task.Run == nil {
		out.Err = fmt.Errorf("task %s has no function", task.ID)
		return out
	}
	out.Value, out.Err = task.Run(ctx)
	return out
}
