package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchCancelFlagCancelsContext(t *testing.T) {
	var flagged atomic.Bool
	w := &Worker{
		isCancelled:         func(jobID string) bool { return flagged.Load() },
		cancelCheckInterval: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := w.watchCancelFlag(ctx, "job-1", cancel)
	defer stop()

	flagged.Store(true)

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not cancelled after the flag was set")
	}
}

func TestWatchCancelFlagWithoutFlagLeavesContextAlone(t *testing.T) {
	w := &Worker{
		isCancelled:         func(jobID string) bool { return false },
		cancelCheckInterval: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := w.watchCancelFlag(ctx, "job-2", cancel)
	defer stop()

	time.Sleep(20 * time.Millisecond)
	assert.NoError(t, ctx.Err())
}

func TestWatchCancelFlagStopEndsWatcher(t *testing.T) {
	var flagged atomic.Bool
	w := &Worker{
		isCancelled:         func(jobID string) bool { return flagged.Load() },
		cancelCheckInterval: time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := w.watchCancelFlag(ctx, "job-3", cancel)
	stop()

	// Give the watcher goroutine time to exit, then raise the flag; a
	// stopped watcher must not cancel the context
	time.Sleep(10 * time.Millisecond)
	flagged.Store(true)
	time.Sleep(20 * time.Millisecond)

	assert.NoError(t, ctx.Err())
}
