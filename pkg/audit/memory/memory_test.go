package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashgrove-labs/taskflow/pkg/audit"
)

func TestRecordAndHistoryPreservesOrder(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, s.Record(ctx, audit.Entry{TaskID: "t1", Event: "submitted", Timestamp: base}))
	require.NoError(t, s.Record(ctx, audit.Entry{TaskID: "t1", Event: "started", Timestamp: base.Add(time.Second)}))
	require.NoError(t, s.Record(ctx, audit.Entry{TaskID: "t2", Event: "submitted", Timestamp: base}))

	history, err := s.History(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "submitted", history[0].Event)
	assert.Equal(t, "started", history[1].Event)
}

func TestHistoryForUnknownTaskIsEmpty(t *testing.T) {
	s := New()
	history, err := s.History(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, history)
}
