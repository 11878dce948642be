// Package vectorindex defines the per-database nearest-neighbor index
// contract storage nodes serve search requests against, plus a reference
// brute-force implementation.
//
// # Overview
//
// The VectorIndex contract is intentionally minimal: build, add, remove,
// search, persist, and size. Any implementation satisfying it — HNSW, IVF,
// LSH — can back a storage node; FlatIndex here is a brute-force
// reference implementation using exact distance computation, sufficient to
// make the coordination layer testable end to end without depending on an
// approximate-search library.
package vectorindex
