package collection

import (
	"log/slog"

	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/distance"
	"github.com/vecdbgo/vecdb/hnsw"
)

// Options configures a new Collection.
type Options struct {
	Name           string
	Dimension      int
	Metric         distance.Metric
	M              int
	EfConstruction int
	EfSearch       int
	Seed           int64
	Logger         *vecdb.Logger
}

// Option mutates an Options value.
type Option func(*Options)

// DefaultOptions returns the configuration a Collection is built with when
// no Option overrides a field.
func DefaultOptions() Options {
	return Options{
		M:              hnsw.DefaultM,
		EfConstruction: hnsw.DefaultEfConstruction,
		EfSearch:       hnsw.DefaultEfSearch,
		Seed:           hnsw.DefaultSeed,
		Logger:         vecdb.NoopLogger(),
	}
}

// WithName sets the collection name.
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithDimension sets the vector dimension.
func WithDimension(dim int) Option {
	return func(o *Options) { o.Dimension = dim }
}

// WithMetric sets the distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *Options) { o.Metric = m }
}

// WithM sets the HNSW maximum neighbors per node per level.
func WithM(m int) Option {
	return func(o *Options) { o.M = m }
}

// WithEfConstruction sets the HNSW insertion search capacity.
func WithEfConstruction(ef int) Option {
	return func(o *Options) { o.EfConstruction = ef }
}

// WithEfSearch sets the default per-query search capacity; Search clamps
// it up to at least k regardless of this setting.
func WithEfSearch(ef int) Option {
	return func(o *Options) { o.EfSearch = ef }
}

// WithSeed sets the HNSW level-assignment RNG seed.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithLogger configures structured logging for operations.
//
//	logger := vecdb.NewJSONLogger(slog.LevelInfo)
//	c, _ := collection.New(collection.Apply(collection.WithLogger(logger)))
func WithLogger(logger *vecdb.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(vecdb.NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *Options) { o.Logger = vecdb.NewTextLogger(level) }
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
