package collection

import (
	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/hnsw"
)

// VectorRecord is one (user id, internal id, vector) triple, as read back
// from a collection's .vectors file.
type VectorRecord struct {
	UserID     uint64
	InternalID int64
	Vector     []float32
}

// Restore reconstructs a Collection from a deserialized index and the
// bijection/vector-store records read from a collection's .vectors file.
// It is the counterpart to persistence loading: the index already carries
// its own configuration, so only the identifier bijection needs rebuilding
// here.
func Restore(opts Options, idx *hnsw.Index, nextInternalID int64, records []VectorRecord) *Collection {
	logger := opts.Logger
	if logger == nil {
		logger = vecdb.NoopLogger()
	}
	c := &Collection{
		name:           opts.Name,
		dim:            idx.Dimension(),
		metric:         idx.Metric(),
		m:              idx.M(),
		efConstruction: idx.EfConstruction(),
		efSearch:       opts.EfSearch,
		userToInternal: make(map[uint64]int64, len(records)),
		internalToUser: make(map[int64]uint64, len(records)),
		vectors:        make(map[uint64][]float32, len(records)),
		nextInternalID: nextInternalID,
		index:          idx,
		logger:         logger.WithCollection(opts.Name),
	}
	if c.efSearch < 1 {
		c.efSearch = hnsw.DefaultEfSearch
	}
	for _, rec := range records {
		c.userToInternal[rec.UserID] = rec.InternalID
		c.internalToUser[rec.InternalID] = rec.UserID
		c.vectors[rec.UserID] = rec.Vector
	}
	return c
}
