package hnsw

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/distance"
)

func newTestIndex(t *testing.T, metric distance.Metric, dim int) *Index {
	t.Helper()
	idx, err := New(Apply(
		WithDimension(dim),
		WithMetric(metric),
		WithM(16),
		WithEfConstruction(200),
		WithSeed(42),
	))
	require.NoError(t, err)
	return idx
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(Apply(WithDimension(0), WithMetric(distance.MetricL2)))
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindInvalidArgument))
}

func TestScenarioL2TwoDimensions(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 2)
	require.NoError(t, idx.Add(1, []float32{0, 0}))
	require.NoError(t, idx.Add(2, []float32{1, 0}))
	require.NoError(t, idx.Add(3, []float32{0, 1}))

	results, err := idx.Search([]float32{0.1, 0.1}, 2, 50)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID)
	assert.InDelta(t, 0.1414, results[0].Distance, 1e-3)
	assert.Equal(t, int64(2), results[1].ID)
	assert.InDelta(t, 0.9055, results[1].Distance, 1e-3)
}

func TestScenarioCosineThreeDimensions(t *testing.T) {
	idx := newTestIndex(t, distance.MetricCosine, 3)
	require.NoError(t, idx.Add(10, []float32{1, 0, 0}))
	require.NoError(t, idx.Add(11, []float32{0, 1, 0}))

	results, err := idx.Search([]float32{1, 0, 0}, 1, 50)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(10), results[0].ID)
	assert.InDelta(t, 0.0, results[0].Distance, 1e-5)
}

func TestDuplicateIDRejected(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 2)
	require.NoError(t, idx.Add(0, []float32{1, 1}))
	err := idx.Add(0, []float32{2, 2})
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindDuplicateID))
}

func TestNonContiguousIDRejected(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 2)
	err := idx.Add(5, []float32{1, 1})
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindInvalidArgument))
}

func TestDimensionMismatch(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 3)
	err := idx.Add(0, []float32{1, 2})
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindDimensionMismatch))

	require.NoError(t, idx.Add(0, []float32{1, 2, 3}))
	_, err = idx.Search([]float32{1, 2}, 1, 10)
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindDimensionMismatch))
}

func TestSearchInvalidK(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 2)
	require.NoError(t, idx.Add(0, []float32{0, 0}))
	_, err := idx.Search([]float32{0, 0}, 0, 10)
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindInvalidArgument))
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 2)
	results, err := idx.Search([]float32{0, 0}, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLazyDeletionExcludedFromSearch(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 1)
	for i := int64(0); i < 100; i++ {
		require.NoError(t, idx.Add(i, []float32{float32(i)}))
	}
	for i := int64(1); i < 100; i += 2 {
		ok := idx.Remove(i)
		assert.True(t, ok)
	}
	assert.Equal(t, 50, idx.Len())

	results, err := idx.Search([]float32{50}, 100, 200)
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, int64(0), r.ID%2, "tombstoned odd id leaked into results")
	}

	// Idempotent: removing again returns false.
	assert.False(t, idx.Remove(1))
	// Removing an id that was never live at all.
	assert.False(t, idx.Remove(9999))
}

func TestExactMatchDot(t *testing.T) {
	idx := newTestIndex(t, distance.MetricDot, 3)
	v := []float32{1, 2, 2} // norm^2 = 9
	require.NoError(t, idx.Add(0, v))
	require.NoError(t, idx.Add(1, []float32{0, 0, 1}))

	results, err := idx.Search(v, 2, 50)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, int64(0), results[0].ID)
	assert.InDelta(t, -9.0, results[0].Distance, 1e-5)
}

func TestSerializationRoundTrip(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 8)
	rng := rand.New(rand.NewSource(7))
	for i := int64(0); i < 200; i++ {
		v := randomVector(rng, 8)
		require.NoError(t, idx.Add(i, v))
	}
	for i := int64(0); i < 200; i += 3 {
		idx.Remove(i)
	}

	data, err := idx.Serialize()
	require.NoError(t, err)

	idx2, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, idx.Len(), idx2.Len())

	query := randomVector(rng, 8)
	r1, err := idx.Search(query, 10, 50)
	require.NoError(t, err)
	r2, err := idx2.Search(query, 10, 50)
	require.NoError(t, err)
	require.Equal(t, len(r1), len(r2))
	for i := range r1 {
		assert.Equal(t, r1[i].ID, r2[i].ID)
		assert.Equal(t, r1[i].Distance, r2[i].Distance)
	}
}

func TestDeserializeRejectsUnknownVersion(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 2)
	require.NoError(t, idx.Add(0, []float32{1, 1}))
	data, err := idx.Serialize()
	require.NoError(t, err)

	corrupt := make([]byte, len(data))
	copy(corrupt, data)
	corrupt[0] = 2 // version byte (little-endian u32, low byte first)

	_, err = Deserialize(corrupt)
	require.Error(t, err)
	assert.True(t, vecdb.Is(err, vecdb.KindDeserialization))
}

func TestDeserializeRejectsTruncation(t *testing.T) {
	idx := newTestIndex(t, distance.MetricL2, 4)
	require.NoError(t, idx.Add(0, []float32{1, 2, 3, 4}))
	require.NoError(t, idx.Add(1, []float32{4, 3, 2, 1}))
	data, err := idx.Serialize()
	require.NoError(t, err)

	for _, cut := range []int{0, 4, 10, len(data) / 2, len(data) - 1} {
		_, err := Deserialize(data[:cut])
		require.Error(t, err, "cut at %d should fail", cut)
		assert.True(t, vecdb.Is(err, vecdb.KindDeserialization))
	}
}

func TestRecallAgainstBruteForce(t *testing.T) {
	const n, dim, k = 1000, 32, 10
	rng := rand.New(rand.NewSource(123))
	idx := newTestIndex(t, distance.MetricL2, dim)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		v := randomUnitVector(rng, dim)
		vectors[i] = v
		require.NoError(t, idx.Add(int64(i), v))
	}

	queries := 20
	var hits, total int
	for q := 0; q < queries; q++ {
		query := randomUnitVector(rng, dim)
		approx, err := idx.Search(query, k, 50)
		require.NoError(t, err)

		exact := bruteForceL2(vectors, query, k)
		exactSet := map[int64]bool{}
		for _, e := range exact {
			exactSet[e] = true
		}
		for _, r := range approx {
			if exactSet[r.ID] {
				hits++
			}
		}
		total += len(exact)
	}
	recall := float64(hits) / float64(total)
	assert.GreaterOrEqual(t, recall, 0.95, "recall@10 below threshold: %f", recall)
}

func bruteForceL2(vectors [][]float32, query []float32, k int) []int64 {
	type pair struct {
		id   int64
		dist float32
	}
	pairs := make([]pair, len(vectors))
	for i, v := range vectors {
		pairs[i] = pair{id: int64(i), dist: distance.L2(query, v)}
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].dist < pairs[j-1].dist; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	if k > len(pairs) {
		k = len(pairs)
	}
	out := make([]int64, k)
	for i := 0; i < k; i++ {
		out[i] = pairs[i].id
	}
	return out
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

func randomUnitVector(rng *rand.Rand, dim int) []float32 {
	v := randomVector(rng, dim)
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		v[0] = 1
		return v
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
