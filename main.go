package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/df07/go-spatial/pkg/accel"
	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/probe"
	"github.com/df07/go-spatial/web/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cliOptions holds flags shared by every subcommand
type cliOptions struct {
	verbose     bool
	accelerator string
	depthBound  int
	leafSize    int
	backFaces   bool
	workers     int
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:          "meshprobe",
		Short:        "Cast rays against triangle meshes",
		Long:         "meshprobe loads PLY and STL meshes, builds a KD-tree or BVH over each and reports where rays first strike them.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log load and build timings to stderr")
	flags.StringVar(&opts.accelerator, "accel", probe.AcceleratorKDTree, "Acceleration structure: kdtree or bvh")
	flags.IntVar(&opts.depthBound, "depth-bound", accel.DefaultDepthBound, "Deepest level the KD-tree may branch to")
	flags.IntVar(&opts.leafSize, "leaf-size", accel.DefaultLeafSize, "Facets per BVH leaf")
	flags.BoolVar(&opts.backFaces, "back-faces", false, "Report hits on the far side of facets")
	flags.IntVar(&opts.workers, "workers", 0, "Goroutines used for batches (0 = one per CPU)")

	root.AddCommand(newInfoCmd(opts), newCastCmd(opts), newBatchCmd(opts), newServeCmd(opts))
	return root
}

func (o *cliOptions) logger(cmd *cobra.Command) core.Logger {
	if !o.verbose {
		return nil
	}
	return log.New(cmd.ErrOrStderr(), "meshprobe: ", log.LstdFlags)
}

// apply overrides cfg with the flags the user set explicitly
func (o *cliOptions) apply(cmd *cobra.Command, cfg *probe.Config) {
	flags := cmd.Flags()
	if flags.Changed("depth-bound") || cfg.DepthBound == nil {
		depth := o.depthBound
		cfg.DepthBound = &depth
	}
	if flags.Changed("accel") || cfg.Accelerator == "" {
		cfg.Accelerator = o.accelerator
	}
	if flags.Changed("leaf-size") {
		cfg.LeafSize = o.leafSize
	}
	if flags.Changed("back-faces") {
		cfg.BackFaces = o.backFaces
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
}

func newInfoCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info MESH...",
		Short: "Print mesh bounds and accelerator statistics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &probe.Config{Meshes: args}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			prober, err := probe.Load(cmd.Context(), cfg, opts.logger(cmd))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, mesh := range prober.Meshes() {
				bounds := mesh.AABB()
				fmt.Fprintf(out, "%s: %d facets\n", mesh.Name(), mesh.Len())
				fmt.Fprintf(out, "  bounds: %v\n", bounds)
				fmt.Fprintf(out, "  size:   %v\n", bounds.Size())
				var (
					kind  string
					stats accel.Stats
				)
				switch a := mesh.Accelerator().(type) {
				case *accel.KDTree:
					kind, stats = "kd-tree", a.Stats()
				case *accel.BVH:
					kind, stats = "bvh", a.Stats()
				default:
					continue
				}
				fmt.Fprintf(out, "  %s: %d nodes, %d leaves, max depth %d, avg leaf depth %.2f, %d facet references\n",
					kind, stats.TotalNodes, stats.LeafNodes, stats.MaxDepth, stats.AvgDepth, stats.FacetRefs)
			}
			return nil
		},
	}
}

func newCastCmd(opts *cliOptions) *cobra.Command {
	var origin, direction []float64

	cmd := &cobra.Command{
		Use:   "cast MESH...",
		Short: "Cast a single ray and print where it strikes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := raySpec(origin, direction)
			if err != nil {
				return err
			}

			cfg := &probe.Config{Meshes: args, Rays: []probe.RaySpec{spec}}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runProbe(cmd, opts, cfg, probe.FormatText)
		},
	}

	cmd.Flags().Float64SliceVar(&origin, "origin", []float64{0, 0, 0}, "Ray origin as x,y,z")
	cmd.Flags().Float64SliceVar(&direction, "direction", nil, "Ray direction as x,y,z")
	cmd.MarkFlagRequired("direction")
	return cmd
}

func newBatchCmd(opts *cliOptions) *cobra.Command {
	var (
		format string
		meshes []string
		sample int
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "batch CONFIG",
		Short: "Cast every ray listed in a YAML probe file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := probe.LoadConfig(args[0])
			if err != nil {
				return err
			}
			if len(meshes) > 0 {
				cfg.Meshes = meshes
			}
			if cmd.Flags().Changed("sample") {
				cfg.Sample = &probe.SampleSpec{Count: sample, Seed: seed}
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runProbe(cmd, opts, cfg, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", probe.FormatText, "Output format: text or yaml")
	cmd.Flags().StringSliceVar(&meshes, "mesh", nil, "Mesh files replacing those in the config")
	cmd.Flags().IntVar(&sample, "sample", 0, "Random rays aimed at the meshes, replacing the config's sample section")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed for --sample")
	return cmd
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve MESH...",
		Short: "Answer ray queries over HTTP",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &probe.Config{Meshes: args}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := opts.logger(cmd)
			prober, err := probe.Load(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if logger == nil {
				logger = log.New(cmd.ErrOrStderr(), "meshprobe: ", log.LstdFlags)
			}
			return server.NewServer(prober, port, logger).Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to serve on")
	return cmd
}

func runProbe(cmd *cobra.Command, opts *cliOptions, cfg *probe.Config, format string) error {
	prober, err := probe.Load(cmd.Context(), cfg, opts.logger(cmd))
	if err != nil {
		return err
	}

	results, err := prober.RunBatch(cmd.Context(), prober.Rays(cfg))
	if err != nil {
		return err
	}

	return probe.WriteReport(cmd.OutOrStdout(), results, format)
}

func raySpec(origin, direction []float64) (probe.RaySpec, error) {
	spec := probe.RaySpec{Name: "ray"}
	if len(origin) != 3 {
		return spec, fmt.Errorf("origin needs 3 components, got %d", len(origin))
	}
	if len(direction) != 3 {
		return spec, fmt.Errorf("direction needs 3 components, got %d", len(direction))
	}
	copy(spec.Origin[:], origin)
	copy(spec.Direction[:], direction)
	return spec, nil
}
