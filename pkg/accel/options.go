package accel

import "github.com/df07/go-spatial/pkg/core"

// DefaultDepthBound is the deepest level a KD-tree branches to unless configured otherwise
const DefaultDepthBound = 8

type options struct {
	depthBound int
	leafSize   int
	logger     core.Logger
}

// Option configures KD-tree and BVH construction
type Option func(*options)

// WithDepthBound sets the deepest level the tree may branch to. Negative values mean zero.
func WithDepthBound(depth int) Option {
	return func(o *options) {
		o.depthBound = max(depth, 0)
	}
}

// WithLeafSize sets how many facets a BVH leaf may hold. Values below one mean one.
func WithLeafSize(n int) Option {
	return func(o *options) {
		o.leafSize = max(n, 1)
	}
}

// WithLogger reports build statistics through logger
func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		depthBound: DefaultDepthBound,
		leafSize:   DefaultLeafSize,
		logger:     core.NopLogger{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
