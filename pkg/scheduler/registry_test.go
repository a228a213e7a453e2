package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryHasReferenceKinds(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"compute", "io_operation", "data_processing", "error_task"} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, "expected kind %q to be registered", name)
	}
	assert.ElementsMatch(t, []string{"compute", "io_operation", "data_processing", "error_task"}, r.Names())
}

func TestComputeHandlerSumsSquares(t *testing.T) {
	result, err := computeHandler(context.Background(), Payload{"iterations": 5.0})
	require.NoError(t, err)
	// sum of i^2 for i in [0, 5) = 0+1+4+9+16 = 30
	assert.Equal(t, int64(30), result["result"])
	assert.Equal(t, 5, result["iterations"])
}

func TestComputeHandlerDefaultsIterations(t *testing.T) {
	result, err := computeHandler(context.Background(), Payload{})
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, result["iterations"])
}

func TestIOOperationHandlerHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ioOperationHandler(ctx, Payload{"duration": 1.0})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIOOperationHandlerReportsSleptFor(t *testing.T) {
	result, err := ioOperationHandler(context.Background(), Payload{"duration": 0.001})
	require.NoError(t, err)
	assert.Equal(t, 0.001, result["slept_for"])
	assert.NotEmpty(t, result["timestamp"])
}

func TestDataProcessingHandlerDoublesAndUppercases(t *testing.T) {
	result, err := dataProcessingHandler(context.Background(), Payload{
		"data": []interface{}{2.0, "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result["original_count"])
	processed := result["processed_data"].([]interface{})
	assert.Equal(t, 4.0, processed[0])
	assert.Equal(t, "HI", processed[1])
}

func TestErrorTaskHandlerAlwaysFails(t *testing.T) {
	_, err := errorTaskHandler(context.Background(), nil)
	assert.EqualError(t, err, "intentional task failure")
}

func TestRegistryRegisterOverridesExistingKind(t *testing.T) {
	r := NewRegistry()
	r.Register(TaskKind{Name: "compute", Classification: ClassificationCPUBound, Handler: func(ctx context.Context, p Payload) (Payload, error) {
		return Payload{"overridden": true}, nil
	}})
	kind, ok := r.Lookup("compute")
	require.True(t, ok)
	result, err := kind.Handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, true, result["overridden"])
}
