// Package vectortypes defines the wire- and storage-level data model shared
// by every layer of vecdb: the coordinator, the storage node, the rebalancer,
// and the binary search-result codec all exchange these types.
//
// # Overview
//
// A VectorEntry is the atomic unit of data: a fixed-length float32 embedding
// keyed by a 64-bit id, scoped to a named DatabaseInfo whose dimension it
// must match. A SearchResult pairs a VectorEntry with the distance/similarity
// computed against a query vector. ShardConfig and ShardInfo describe the
// cluster topology that the hash ring and ownership layers build on.
//
// # Thread Safety
//
// All types here are plain data and are safe to share across goroutines as
// long as no goroutine mutates a value another is reading; callers that hand
// a VectorEntry across a channel or RPC boundary should treat it as
// immutable, matching the data model's "immutable once written" invariant.
package vectortypes
