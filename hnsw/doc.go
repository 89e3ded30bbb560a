// Package hnsw implements a Hierarchical Navigable Small World graph: an
// approximate k-nearest-neighbor index over fixed-dimensional float32
// vectors.
//
// The index is single-threaded and deterministic: given the same sequence
// of Add/Remove calls and the same construction seed, it builds a
// bit-identical graph, and serialize/deserialize round-trips answer every
// query identically to the original. There is no internal locking;
// callers that need concurrent access must synchronize externally.
package hnsw
