package hnsw

import (
	"math"
	"math/rand"

	"github.com/RoaringBitmap/roaring/v2"

	vecdb "github.com/vecdbgo/vecdb"
	"github.com/vecdbgo/vecdb/distance"
)

// Neighbor is one result of a Search call.
type Neighbor struct {
	ID       int64
	Distance float32
}

// node is one vertex of the graph, addressed by its internal id through a
// dense slice (ids are assigned monotonically from 0 with no gaps, so
// nodes[id] is always the node with that internal id).
type node struct {
	vector    []float32
	topLevel  int
	neighbors [][]int64 // neighbors[level] = adjacency list at that level
}

// Index is a single-threaded HNSW graph over fixed-dimensional vectors.
type Index struct {
	dim            int
	metric         distance.Metric
	distFn         distance.Func
	m              int
	mMax0          int
	efConstruction int
	levelMult      float64
	rng            *rand.Rand

	nodes      []*node
	tombstones *roaring.Bitmap
	entryPoint int64
	maxLevel   int
}

// New creates an empty index. It rejects dim < 1 and unknown metric names.
func New(opts Options) (*Index, error) {
	if opts.Dimension < 1 {
		return nil, vecdb.InvalidArgument("hnsw: dimension must be >= 1")
	}
	distFn, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, vecdb.InvalidArgument("hnsw: " + err.Error())
	}
	m := opts.M
	if m < 1 {
		m = DefaultM
	}
	efConstruction := opts.EfConstruction
	if efConstruction < 1 {
		efConstruction = DefaultEfConstruction
	}

	levelMult := 0.0
	if m > 1 {
		levelMult = 1.0 / math.Log(float64(m))
	}

	return &Index{
		dim:            opts.Dimension,
		metric:         opts.Metric,
		distFn:         distFn,
		m:              m,
		mMax0:          2 * m,
		efConstruction: efConstruction,
		levelMult:      levelMult,
		rng:            rand.New(rand.NewSource(opts.Seed)),
		tombstones:     roaring.New(),
		entryPoint:     -1,
		maxLevel:       -1,
	}, nil
}

// Dimension returns the configured vector dimension.
func (idx *Index) Dimension() int { return idx.dim }

// Metric returns the configured distance metric.
func (idx *Index) Metric() distance.Metric { return idx.metric }

// M returns the configured per-level neighbor cap (2*M at level 0).
func (idx *Index) M() int { return idx.m }

// EfConstruction returns the configured insertion search capacity.
func (idx *Index) EfConstruction() int { return idx.efConstruction }

// Len returns the number of live (non-tombstoned) nodes.
func (idx *Index) Len() int {
	return len(idx.nodes) - int(idx.tombstones.GetCardinality())
}

// randomLevel draws the top level for a new node:
// floor(-ln(U) / ln(M)) with U uniform on (0,1].
func (idx *Index) randomLevel() int {
	if idx.levelMult == 0 {
		return 0
	}
	u := 1 - idx.rng.Float64() // (0,1]
	level := int(math.Floor(-math.Log(u) * idx.levelMult))
	if level < 0 {
		level = 0
	}
	return level
}

func (idx *Index) capAt(level int) int {
	if level == 0 {
		return idx.mMax0
	}
	return idx.m
}

func (idx *Index) distanceTo(id int64, query []float32) float32 {
	return idx.distFn(query, idx.nodes[id].vector)
}

// Add integrates a new vector under internal id into the graph. id must be
// exactly len(nodes) — the collection layer guarantees internal ids are
// allocated monotonically with no gaps.
func (idx *Index) Add(id int64, vector []float32) error {
	if len(vector) != idx.dim {
		return vecdb.DimensionMismatch(idx.dim, len(vector))
	}
	if id >= 0 && id < int64(len(idx.nodes)) {
		return vecdb.DuplicateID(uint64(id))
	}
	if id != int64(len(idx.nodes)) {
		return vecdb.InvalidArgument("hnsw: internal id must be allocated monotonically")
	}

	level := idx.randomLevel()
	n := &node{
		vector:    vector,
		topLevel:  level,
		neighbors: make([][]int64, level+1),
	}
	idx.nodes = append(idx.nodes, n)

	if idx.entryPoint == -1 {
		idx.entryPoint = id
		idx.maxLevel = level
		return nil
	}

	entry := idx.entryPoint
	// Step 2: greedy descent from Lmax down to level+1.
	for l := idx.maxLevel; l > level; l-- {
		entry = idx.greedyDescend(entry, vector, l)
	}

	// Step 3: bounded search + neighbor selection at each level from
	// min(level, maxLevel) down to 0.
	for l := min(level, idx.maxLevel); l >= 0; l-- {
		candidates := idx.searchLayer(vector, entry, idx.efConstruction, l)
		selected := selectNeighbors(candidates, idx.capAt(l))
		n.neighbors[l] = make([]int64, len(selected))
		for i, c := range selected {
			n.neighbors[l][i] = c.id
		}
		for _, c := range selected {
			idx.addReciprocal(c.id, id, l)
		}
		if len(candidates) > 0 {
			entry = candidates[0].id
		}
	}

	if level > idx.maxLevel {
		idx.maxLevel = level
		idx.entryPoint = id
	}
	return nil
}

// addReciprocal adds a back-edge from neighborID to newID at level, pruning
// neighborID's adjacency at that level if it now exceeds its cap.
func (idx *Index) addReciprocal(neighborID, newID int64, level int) {
	nb := idx.nodes[neighborID]
	if level > nb.topLevel {
		return
	}
	nb.neighbors[level] = append(nb.neighbors[level], newID)
	cap := idx.capAt(level)
	if len(nb.neighbors[level]) <= cap {
		return
	}

	items := make([]item, len(nb.neighbors[level]))
	for i, id := range nb.neighbors[level] {
		items[i] = item{id: id, distance: idx.distanceTo(id, nb.vector)}
	}
	selected := selectNeighbors(items, cap)
	pruned := make([]int64, len(selected))
	for i, c := range selected {
		pruned[i] = c.id
	}
	nb.neighbors[level] = pruned
}

// selectNeighbors keeps up to cap of the closest candidates (simple
// top-cap selection, per the spec — not the RNG-pruning heuristic).
func selectNeighbors(candidates []item, cap int) []item {
	sorted := sortedItems(candidates)
	if len(sorted) > cap {
		sorted = sorted[:cap]
	}
	return sorted
}

func sortedItems(items []item) []item {
	out := make([]item, len(items))
	copy(out, items)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := out[j], out[j-1]
			if a.distance < b.distance || (a.distance == b.distance && a.id < b.id) {
				out[j], out[j-1] = out[j-1], out[j]
			} else {
				break
			}
		}
	}
	return out
}

// greedyDescend walks from entry to a strict local minimum of distance to
// query within level, following the best-improvement neighbor each step.
func (idx *Index) greedyDescend(entry int64, query []float32, level int) int64 {
	best := entry
	bestDist := idx.distanceTo(best, query)
	for {
		improved := false
		for _, nb := range idx.neighborsAt(best, level) {
			d := idx.distanceTo(nb, query)
			if d < bestDist || (d == bestDist && nb < best) {
				bestDist = d
				best = nb
				improved = true
			}
		}
		if !improved {
			return best
		}
	}
}

func (idx *Index) neighborsAt(id int64, level int) []int64 {
	n := idx.nodes[id]
	if level > n.topLevel {
		return nil
	}
	return n.neighbors[level]
}

// searchLayer runs the bounded best-first search primitive: from entry,
// explore level best-first, keeping the ef nearest nodes seen, and return
// them ascending by distance. Tombstones are not filtered here.
func (idx *Index) searchLayer(query []float32, entry int64, ef int, level int) []item {
	visited := map[int64]struct{}{entry: {}}

	entryDist := idx.distanceTo(entry, query)
	frontier := newHeap(false) // min-heap: explore best first
	frontier.Push(item{id: entry, distance: entryDist})
	results := newHeap(true) // max-heap: worst at top, bounded to ef
	results.Push(item{id: entry, distance: entryDist})

	for frontier.Len() > 0 {
		cur, _ := frontier.Pop()
		if worst, ok := results.Top(); ok && results.Len() >= ef && cur.distance > worst.distance {
			break
		}
		for _, nb := range idx.neighborsAt(cur.id, level) {
			if _, seen := visited[nb]; seen {
				continue
			}
			visited[nb] = struct{}{}
			d := idx.distanceTo(nb, query)
			worst, hasWorst := results.Top()
			if results.Len() < ef || !hasWorst || d < worst.distance || (d == worst.distance && nb < worst.id) {
				frontier.Push(item{id: nb, distance: d})
				results.PushBounded(item{id: nb, distance: d}, ef)
			}
		}
	}
	return results.Sorted()
}

// Search returns up to k live nearest neighbors of query, ascending by
// distance.
func (idx *Index) Search(query []float32, k int, efSearch int) ([]Neighbor, error) {
	if len(query) != idx.dim {
		return nil, vecdb.DimensionMismatch(idx.dim, len(query))
	}
	if k < 1 {
		return nil, vecdb.InvalidArgument("hnsw: k must be >= 1")
	}
	if idx.entryPoint == -1 {
		return nil, nil
	}
	if efSearch < k {
		efSearch = k
	}

	entry := idx.entryPoint
	for l := idx.maxLevel; l > 0; l-- {
		entry = idx.greedyDescend(entry, query, l)
	}
	candidates := idx.searchLayer(query, entry, efSearch, 0)

	results := make([]Neighbor, 0, k)
	for _, c := range candidates {
		if idx.tombstones.Contains(uint32(c.id)) {
			continue
		}
		results = append(results, Neighbor{ID: c.id, Distance: c.distance})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// Remove marks id as tombstoned. Idempotent: returns true iff id was live
// before the call. The node stays in the graph as a routing vertex.
func (idx *Index) Remove(id int64) bool {
	if id < 0 || id >= int64(len(idx.nodes)) {
		return false
	}
	if idx.tombstones.Contains(uint32(id)) {
		return false
	}
	idx.tombstones.Add(uint32(id))
	return true
}
