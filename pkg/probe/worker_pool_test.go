package probe

import (
	"context"
	"runtime"
	"testing"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	assert.Equal(t, runtime.NumCPU(), NewWorkerPool(NewProber(nil), 1, 0).GetNumWorkers())
	assert.Equal(t, runtime.NumCPU(), NewWorkerPool(NewProber(nil), 1, -3).GetNumWorkers())
	assert.Equal(t, 4, NewWorkerPool(NewProber(nil), 1, 4).GetNumWorkers())
}

func TestWorkerPool_AnswersEveryTask(t *testing.T) {
	prober := NewProber([]*geometry.Mesh{cubeMesh(t, "cube", core.Vec3{})})
	pool := NewWorkerPool(prober, 20, 3)
	pool.Start(context.Background())

	for i := 0; i < 20; i++ {
		direction := core.UnitZ().Negate()
		if i%2 == 1 {
			direction = core.UnitZ()
		}
		pool.SubmitTask(RayTask{TaskID: i, Name: "r", Ray: core.MustRay(core.NewVec3(0.5, 0.25, 5), direction)})
	}
	pool.Stop()

	seen := make(map[int]bool)
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		require.NoError(t, result.Error)
		assert.Equal(t, result.TaskID%2 == 0, result.Result.Hit, "task %d", result.TaskID)
		assert.Equal(t, "r", result.Result.Name)
		seen[result.TaskID] = true
	}
	assert.Len(t, seen, 20)
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(NewProber(nil), 5, 2)
	pool.Start(ctx)
	for i := 0; i < 5; i++ {
		pool.SubmitTask(RayTask{TaskID: i, Ray: core.MustRay(core.Vec3{}, core.UnitX())})
	}
	pool.Stop()

	count := 0
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		assert.ErrorIs(t, result.Error, context.Canceled)
		count++
	}
	assert.Equal(t, 5, count)
}
