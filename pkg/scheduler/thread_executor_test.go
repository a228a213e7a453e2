package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThreadExecutorRunsAndReportsCompletion(t *testing.T) {
	exec := NewThreadExecutor(2, 4)
	ctx := context.Background()
	require.NoError(t, exec.Start(ctx))
	defer exec.Stop(time.Second)

	task := &Task{ID: "t1", Name: "io_operation"}
	exec.Run(ctx, task, func(ctx context.Context, p Payload) (Payload, error) {
		return Payload{"ok": true}, nil
	})

	select {
	case c := <-exec.Completions():
		assert.Equal(t, "t1", c.TaskID)
		assert.NoError(t, c.Err)
		assert.Equal(t, true, c.Result["ok"])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}
}

func TestThreadExecutorCancelInterruptsRunningTask(t *testing.T) {
	exec := NewThreadExecutor(1, 1)
	ctx := context.Background()
	require.NoError(t, exec.Start(ctx))
	defer exec.Stop(time.Second)

	started := make(chan struct{})
	task := &Task{ID: "t1", Name: "io_operation"}
	exec.Run(ctx, task, func(ctx context.Context, p Payload) (Payload, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	<-started
	assert.Eventually(t, func() bool { return exec.Cancel("t1") }, time.Second, time.Millisecond)

	select {
	case c := <-exec.Completions():
		assert.ErrorIs(t, c.Err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for cancellation completion")
	}
}

func TestThreadExecutorActiveCountTracksInFlightWork(t *testing.T) {
	exec := NewThreadExecutor(2, 4)
	ctx := context.Background()
	require.NoError(t, exec.Start(ctx))
	defer exec.Stop(time.Second)

	release := make(chan struct{})
	task := &Task{ID: "t1", Name: "io_operation"}
	exec.Run(ctx, task, func(ctx context.Context, p Payload) (Payload, error) {
		<-release
		return Payload{}, nil
	})

	assert.Eventually(t, func() bool { return exec.ActiveCount() == 1 }, time.Second, time.Millisecond)
	close(release)
	<-exec.Completions()
	assert.Eventually(t, func() bool { return exec.ActiveCount() == 0 }, time.Second, time.Millisecond)
}
