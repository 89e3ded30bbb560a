// Package distance provides vector distance calculations for the database's
// supported metrics.
//
// # Supported Metrics
//
//   - MetricL2: Euclidean distance
//   - MetricCosine: cosine distance (1 - cosine similarity), 1.0 for a
//     zero-norm input
//   - MetricDot: negative inner product, for maximum inner product search
//
// Every function is a tight per-dimension loop over float32 slices rather
// than a SIMD-dispatching abstraction: the database treats distance as a
// pure, deterministic function of its bit-level inputs, and a hand-written
// loop keeps that true across platforms without a backend to audit.
//
// # Usage
//
//	dist := distance.L2(a, b)
//	dist = distance.Cosine(a, b)
//	dist = distance.Dot(a, b)
package distance
