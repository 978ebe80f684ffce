package autherrors

import (
	"context"
	"sync"
	"time"
)

// RetryTask is a single scheduled re-invocation for a retryable failure.
// The task is owned by the caller: cancelling the context or calling Stop
// prevents the retry from firing, so no timer outlives the request that
// scheduled it.
type RetryTask struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// ScheduleRetry schedules fn to run once after delay if the classified error
// is retryable. It returns nil when the error is not retryable. The retry is
// fire-and-forget from the caller's perspective but remains cancellable.
func ScheduleRetry(ctx context.Context, inf Info, delay time.Duration, fn func()) *RetryTask {
	if !inf.Retryable || fn == nil {
		return nil
	}

	t := &RetryTask{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	timer := time.NewTimer(delay)
	go func() {
		defer close(t.done)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-t.stop:
		case <-timer.C:
			fn()
		}
	}()
	return t
}

// Stop cancels the pending retry. Safe to call on a nil task, repeatedly, or
// after the retry has fired.
func (t *RetryTask) Stop() {
	if t == nil {
		return
	}
	t.stopOnce.Do(func() { close(t.stop) })
}

// Wait blocks until the task has either fired or been cancelled. Intended for
// tests; production callers treat the task as fire-and-forget.
func (t *RetryTask) Wait() {
	if t == nil {
		return
	}
	<-t.done
}
