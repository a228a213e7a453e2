package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(id string, p Priority) *Task {
	return &Task{ID: id, Name: "compute", Priority: p, Status: StatusPending}
}

func TestQueueDrainsHighestPriorityFirst(t *testing.T) {
	q := NewQueue(10)
	require.NoError(t, q.Offer(newTask("low-1", PriorityLow)))
	require.NoError(t, q.Offer(newTask("urgent-1", PriorityUrgent)))
	require.NoError(t, q.Offer(newTask("normal-1", PriorityNormal)))
	require.NoError(t, q.Offer(newTask("urgent-2", PriorityUrgent)))

	assert.Equal(t, "urgent-1", q.Poll().ID)
	assert.Equal(t, "urgent-2", q.Poll().ID)
	assert.Equal(t, "normal-1", q.Poll().ID)
	assert.Equal(t, "low-1", q.Poll().ID)
	assert.Nil(t, q.Poll())
}

func TestQueueIsFIFOWithinAPriorityLevel(t *testing.T) {
	q := NewQueue(10)
	require.NoError(t, q.Offer(newTask("a", PriorityNormal)))
	require.NoError(t, q.Offer(newTask("b", PriorityNormal)))
	require.NoError(t, q.Offer(newTask("c", PriorityNormal)))

	assert.Equal(t, "a", q.Poll().ID)
	assert.Equal(t, "b", q.Poll().ID)
	assert.Equal(t, "c", q.Poll().ID)
}

func TestQueueRejectsWhenFull(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.Offer(newTask("a", PriorityLow)))
	require.NoError(t, q.Offer(newTask("b", PriorityLow)))

	err := q.Offer(newTask("c", PriorityLow))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue(10)
	require.NoError(t, q.Offer(newTask("a", PriorityNormal)))
	require.NoError(t, q.Offer(newTask("b", PriorityNormal)))

	assert.True(t, q.Remove("a"))
	assert.False(t, q.Remove("a"))
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, "b", q.Poll().ID)
}

func TestQueueLevelCounts(t *testing.T) {
	q := NewQueue(10)
	require.NoError(t, q.Offer(newTask("a", PriorityHigh)))
	require.NoError(t, q.Offer(newTask("b", PriorityHigh)))
	require.NoError(t, q.Offer(newTask("c", PriorityLow)))

	counts := q.LevelCounts()
	assert.Equal(t, 2, counts["high"])
	assert.Equal(t, 1, counts["low"])
	assert.Equal(t, 0, counts["urgent"])
}
