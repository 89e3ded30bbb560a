package collection

import (
	"context"

	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/distance"
	"github.com/vecdbgo/vecdb/hnsw"
)

// Neighbor is one result of a Search call, translated from the index's
// internal id back to the caller's user id.
type Neighbor struct {
	UserID   uint64
	Distance float32
}

// Collection holds one named set of vectors: the user-id/internal-id
// bijection, the verbatim vector store, and the HNSW index that answers
// nearest-neighbor queries over it.
type Collection struct {
	name           string
	dim            int
	metric         distance.Metric
	m              int
	efConstruction int
	efSearch       int

	userToInternal map[uint64]int64
	internalToUser map[int64]uint64
	vectors        map[uint64][]float32
	nextInternalID int64

	index  *hnsw.Index
	logger *vecdb.Logger
}

// New creates an empty collection.
func New(opts Options) (*Collection, error) {
	if opts.Name == "" {
		return nil, vecdb.InvalidArgument("collection: name must not be empty")
	}
	idx, err := hnsw.New(hnsw.Apply(
		hnsw.WithDimension(opts.Dimension),
		hnsw.WithMetric(opts.Metric),
		hnsw.WithM(opts.M),
		hnsw.WithEfConstruction(opts.EfConstruction),
		hnsw.WithSeed(opts.Seed),
	))
	if err != nil {
		return nil, err
	}
	efSearch := opts.EfSearch
	if efSearch < 1 {
		efSearch = hnsw.DefaultEfSearch
	}
	logger := opts.Logger
	if logger == nil {
		logger = vecdb.NoopLogger()
	}
	return &Collection{
		name:           opts.Name,
		dim:            opts.Dimension,
		metric:         opts.Metric,
		m:              idx.M(),
		efConstruction: idx.EfConstruction(),
		efSearch:       efSearch,
		userToInternal: make(map[uint64]int64),
		internalToUser: make(map[int64]uint64),
		vectors:        make(map[uint64][]float32),
		index:          idx,
		logger:         logger.WithCollection(opts.Name),
	}, nil
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }

// Dimension returns the configured vector dimension.
func (c *Collection) Dimension() int { return c.dim }

// Metric returns the configured distance metric.
func (c *Collection) Metric() distance.Metric { return c.metric }

// M returns the configured HNSW per-level neighbor cap.
func (c *Collection) M() int { return c.m }

// EfConstruction returns the configured HNSW insertion search capacity.
func (c *Collection) EfConstruction() int { return c.efConstruction }

// EfSearch returns the configured default per-query search capacity.
func (c *Collection) EfSearch() int { return c.efSearch }

// NextInternalID returns the internal id that will be assigned to the next
// successful Insert.
func (c *Collection) NextInternalID() int64 { return c.nextInternalID }

// Index returns the underlying HNSW index, for persistence.
func (c *Collection) Index() *hnsw.Index { return c.index }

// Insert adds vector under userID. Fails with KindDimensionMismatch if the
// vector length is wrong, KindDuplicateID if userID is already live.
// Duplicate user ids are rejected outright — there is no implicit update;
// callers that want to replace a vector must Delete then Insert, which
// assigns a fresh internal id.
func (c *Collection) Insert(userID uint64, vector []float32) error {
	err := c.insert(userID, vector)
	c.logger.LogInsert(context.Background(), userID, len(vector), err)
	return err
}

func (c *Collection) insert(userID uint64, vector []float32) error {
	if len(vector) != c.dim {
		return vecdb.DimensionMismatch(c.dim, len(vector))
	}
	if _, live := c.userToInternal[userID]; live {
		return vecdb.DuplicateID(userID)
	}

	internalID := c.nextInternalID
	stored := make([]float32, len(vector))
	copy(stored, vector)

	if err := c.index.Add(internalID, vector); err != nil {
		return err
	}

	c.nextInternalID++
	c.userToInternal[userID] = internalID
	c.internalToUser[internalID] = userID
	c.vectors[userID] = stored
	return nil
}

// Search returns up to k live nearest neighbors of query, using the
// collection's default ef_search.
func (c *Collection) Search(query []float32, k int) ([]Neighbor, error) {
	return c.SearchWithEf(query, k, c.efSearch)
}

// SearchWithEf is Search with an explicit ef_search override; efSearch is
// clamped up to at least k.
func (c *Collection) SearchWithEf(query []float32, k int, efSearch int) ([]Neighbor, error) {
	results, err := c.searchWithEf(query, k, efSearch)
	c.logger.LogSearch(context.Background(), k, len(results), err)
	return results, err
}

func (c *Collection) searchWithEf(query []float32, k int, efSearch int) ([]Neighbor, error) {
	hits, err := c.index.Search(query, k, efSearch)
	if err != nil {
		return nil, err
	}
	results := make([]Neighbor, 0, len(hits))
	for _, h := range hits {
		userID, ok := c.internalToUser[h.ID]
		if !ok {
			// Defensive: should not occur given the bijection invariant.
			continue
		}
		results = append(results, Neighbor{UserID: userID, Distance: h.Distance})
	}
	return results, nil
}

// Get returns the verbatim vector previously inserted for userID.
func (c *Collection) Get(userID uint64) ([]float32, bool) {
	v, ok := c.vectors[userID]
	if !ok {
		return nil, false
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out, true
}

// Contains reports whether userID is currently live.
func (c *Collection) Contains(userID uint64) bool {
	_, ok := c.userToInternal[userID]
	return ok
}

// Count returns the number of live user ids.
func (c *Collection) Count() int {
	return len(c.userToInternal)
}

// Records returns the (user id, internal id, vector) triple for every
// live entry, for persistence to write to a .vectors file. Order is
// unspecified.
func (c *Collection) Records() []VectorRecord {
	out := make([]VectorRecord, 0, len(c.userToInternal))
	for userID, internalID := range c.userToInternal {
		out = append(out, VectorRecord{
			UserID:     userID,
			InternalID: internalID,
			Vector:     c.vectors[userID],
		})
	}
	return out
}

// Delete removes userID, if present. Returns false if userID was not live.
func (c *Collection) Delete(userID uint64) bool {
	found := c.delete(userID)
	c.logger.LogDelete(context.Background(), userID, found, nil)
	return found
}

func (c *Collection) delete(userID uint64) bool {
	internalID, ok := c.userToInternal[userID]
	if !ok {
		return false
	}
	delete(c.userToInternal, userID)
	delete(c.internalToUser, internalID)
	delete(c.vectors, userID)
	c.index.Remove(internalID)
	return true
}
