// Package collection implements a named set of vectors backed by an HNSW
// index: user-facing uint64 identifiers, verbatim vector retention, and
// delegation of nearest-neighbor search to the index.
package collection
