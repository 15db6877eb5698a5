package probe

import (
	"context"
	"runtime"
	"sync"

	"github.com/df07/go-spatial/pkg/core"
)

// RayTask is a single ray query for the worker pool
type RayTask struct {
	TaskID int // Position of the ray in the batch
	Name   string
	Ray    core.Ray
}

// RayResult carries a task's outcome back to the submitter
type RayResult struct {
	TaskID int
	Result Result
	Error  error
}

// WorkerPool casts rays in parallel against a shared prober
type WorkerPool struct {
	taskQueue   chan RayTask
	resultQueue chan RayResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual ray tasks
type Worker struct {
	ID          int
	prober      *Prober
	taskQueue   chan RayTask
	resultQueue chan RayResult
}

// NewWorkerPool creates a pool sized for maxTasks queued rays. Zero or negative numWorkers
// uses one worker per CPU.
func NewWorkerPool(prober *Prober, maxTasks, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan RayTask, maxTasks),   // Buffer for every task
		resultQueue: make(chan RayResult, maxTasks), // Buffer for every result
		numWorkers:  numWorkers,
	}

	// Create workers
	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			prober:      prober,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers. Once ctx is done, remaining tasks are answered with its error.
func (wp *WorkerPool) Start(ctx context.Context) {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(ctx, &wp.wg)
	}
}

// Stop closes the task queue, waits for the workers and then closes the result queue
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a ray task to the worker pool
func (wp *WorkerPool) SubmitTask(task RayTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed ray result
func (wp *WorkerPool) GetResult() (RayResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := ctx.Err(); err != nil {
			w.resultQueue <- RayResult{TaskID: task.TaskID, Error: err}
			continue
		}

		// The prober only reads the meshes, so workers share it freely
		result := w.prober.Cast(task.Ray)
		result.Name = task.Name

		w.resultQueue <- RayResult{TaskID: task.TaskID, Result: result}
	}
}
