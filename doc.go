// Package vecdb provides the storage-engine primitives behind an embeddable
// vector database: named collections of fixed-dimensional float32 vectors,
// approximate k-nearest-neighbor search over an HNSW index, and crash-safe
// persistence to a directory on disk.
//
// This package does not provide a top-level multi-collection database
// handle, CLI, or client library — it exposes the collection and
// persistence primitives a thin façade would be built on top of.
//
// # Quick start
//
//	col, _ := collection.New(collection.Apply(
//		collection.WithName("products"),
//		collection.WithDimension(128),
//		collection.WithMetric(distance.MetricCosine),
//	))
//	_ = col.Insert(42, vector)
//	results, _ := col.Search(query, 10)
//
//	store, _ := persistence.Open("./data")
//	_ = store.SaveCollection(col)
//	col2, _ := store.LoadCollection("products")
//
// # Key properties
//
//   - Deterministic: identical inputs and identical RNG seed produce
//     identical graphs and identical query results.
//   - Single-threaded: no internal locking or goroutines. Callers that need
//     concurrent access must synchronize externally.
//   - Durable: every on-disk write goes through a temp file, fsync, and an
//     atomic rename, so a crash mid-write never leaves a half-written file
//     in place of a valid one.
package vecdb
