package probe

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
	"github.com/df07/go-spatial/pkg/loaders"
)

// Result is the outcome of casting one ray against every loaded mesh
type Result struct {
	Name     string
	Ray      core.Ray
	Hit      bool
	Distance float64         // +Inf on a miss
	Point    core.Vec3       // Where the ray strikes, zero on a miss
	Normal   core.Vec3       // Normal of the struck facet
	Mesh     string          // Name of the struck mesh
	Facet    *geometry.Facet // Struck facet, nil on a miss
}

// Prober answers ray queries against a fixed set of meshes. It never mutates the meshes,
// so any number of goroutines may call Cast at once.
type Prober struct {
	meshes    []*geometry.Mesh
	backFaces bool
	workers   int
	logger    core.Logger
}

// Option configures a Prober
type Option func(*Prober)

// WithBackFaces reports hits on the far side of facets. Such queries scan every facet
// instead of using the mesh accelerators.
func WithBackFaces(enabled bool) Option {
	return func(p *Prober) {
		p.backFaces = enabled
	}
}

// WithWorkers sets the number of goroutines RunBatch uses; zero means one per CPU
func WithWorkers(n int) Option {
	return func(p *Prober) {
		p.workers = n
	}
}

// WithLogger reports batch timing through logger
func WithLogger(logger core.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProber creates a prober over meshes
func NewProber(meshes []*geometry.Mesh, opts ...Option) *Prober {
	p := &Prober{
		meshes: meshes,
		logger: core.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load reads every mesh named by cfg in parallel, installs a KD-tree on each and returns a
// prober configured from cfg
func Load(ctx context.Context, cfg *Config, logger core.Logger) (*Prober, error) {
	if len(cfg.Meshes) == 0 {
		return nil, fmt.Errorf("%w: no meshes", ErrInvalidConfig)
	}

	factory := cfg.AcceleratorFactory(logger)
	loaded := make([][]*geometry.Mesh, len(cfg.Meshes))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range cfg.Meshes {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parser, err := loaders.ParserFor(path, logger)
			if err != nil {
				return err
			}
			meshes, err := geometry.FromFile(parser, path, factory)
			if err != nil {
				return err
			}
			loaded[i] = meshes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var meshes []*geometry.Mesh
	for _, group := range loaded {
		meshes = append(meshes, group...)
	}

	return NewProber(meshes,
		WithBackFaces(cfg.BackFaces),
		WithWorkers(cfg.Workers),
		WithLogger(logger),
	), nil
}

// LoggingTo returns a prober sharing p's meshes and settings that reports through logger
func (p *Prober) LoggingTo(logger core.Logger) *Prober {
	clone := *p
	if logger == nil {
		logger = core.NopLogger{}
	}
	clone.logger = logger
	return &clone
}

// Meshes returns the meshes being probed
func (p *Prober) Meshes() []*geometry.Mesh {
	return p.meshes
}

// Cast finds the closest facet struck by ray across all meshes
func (p *Prober) Cast(ray core.Ray) Result {
	result := Result{Ray: ray}

	closest := core.Miss()
	for _, mesh := range p.meshes {
		if hit := p.intersect(mesh, ray); hit.CloserThan(closest) {
			closest = hit
			result.Mesh = mesh.Name()
		}
	}

	result.Distance = closest.Distance()
	if !closest.IsHit() {
		return result
	}

	result.Hit = true
	result.Point = ray.At(result.Distance)
	if facet, ok := closest.Object().(*geometry.Facet); ok {
		result.Facet = facet
		// A facet that was hit has a non-zero area, so its normal exists
		result.Normal, _ = facet.Normal()
	}
	return result
}

func (p *Prober) intersect(mesh *geometry.Mesh, ray core.Ray) core.Intersection {
	if !p.backFaces {
		return mesh.Intersect(ray)
	}

	closest := core.Miss()
	for _, facet := range mesh.Facets() {
		if x := facet.IntersectWithBackFaces(ray, true); x.CloserThan(closest) {
			closest = x
		}
	}
	return closest
}

// RunBatch casts every ray on the worker pool and returns results in input order.
// Invalid rays fail the whole batch before any is cast.
func (p *Prober) RunBatch(ctx context.Context, specs []RaySpec) ([]Result, error) {
	startTime := time.Now()

	tasks := make([]RayTask, len(specs))
	for i, spec := range specs {
		ray, err := spec.Ray()
		if err != nil {
			return nil, fmt.Errorf("ray %d (%s): %w", i, spec.Name, err)
		}
		tasks[i] = RayTask{TaskID: i, Name: spec.Name, Ray: ray}
	}

	pool := NewWorkerPool(p, len(tasks), p.workers)
	pool.Start(ctx)
	for _, task := range tasks {
		pool.SubmitTask(task)
	}
	pool.Stop()

	results := make([]Result, len(tasks))
	var firstErr error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		results[result.TaskID] = result.Result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	stats := Summarize(results)
	p.logger.Printf("Probed %d rays with %d workers: %d hits in %v\n",
		stats.Rays, pool.GetNumWorkers(), stats.Hits, time.Since(startTime))

	return results, nil
}
