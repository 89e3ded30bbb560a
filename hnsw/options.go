package hnsw

import "github.com/vecdbgo/vecdb/distance"

// DefaultM is the default maximum number of neighbors per node per level
// above level 0 (level 0's cap is 2*M).
const DefaultM = 16

// DefaultEfConstruction is the default bounded best-first search capacity
// used while inserting.
const DefaultEfConstruction = 200

// DefaultEfSearch is the default per-query bounded search capacity.
const DefaultEfSearch = 50

// DefaultSeed seeds the level-assignment RNG when no seed is supplied,
// keeping graphs built with default options reproducible across runs.
const DefaultSeed = 1

// Options configures a new Index.
type Options struct {
	Dimension      int
	Metric         distance.Metric
	M              int
	EfConstruction int
	Seed           int64
}

// Option mutates an Options value.
type Option func(*Options)

// DefaultOptions returns the configuration an Index is built with when no
// Option overrides a field; Dimension and Metric must still be supplied by
// the caller since they have no sane default.
func DefaultOptions() Options {
	return Options{
		M:              DefaultM,
		EfConstruction: DefaultEfConstruction,
		Seed:           DefaultSeed,
	}
}

// WithDimension sets the vector dimension.
func WithDimension(dim int) Option {
	return func(o *Options) { o.Dimension = dim }
}

// WithMetric sets the distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *Options) { o.Metric = m }
}

// WithM sets the maximum neighbors per node per level.
func WithM(m int) Option {
	return func(o *Options) { o.M = m }
}

// WithEfConstruction sets the bounded best-first search capacity used
// during insertion.
func WithEfConstruction(ef int) Option {
	return func(o *Options) { o.EfConstruction = ef }
}

// WithSeed sets the level-assignment RNG seed, for reproducible graphs.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// Apply builds an Options value from DefaultOptions with the given
// overrides applied in order.
func Apply(opts ...Option) Options {
	o := DefaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
