// Package shardnode implements the storage-node side of the RPC surface
// internal/storageclient dials: vector and database CRUD, search, and
// replica operations, backed by a internal/kvstore.KeyValueStorage and an
// internal/vectorindex.VectorIndex, routed with gorilla/mux.
//
// # Overview
//
// A Server owns one primary KeyValueStorage/VectorIndex pair and a second
// KeyValueStorage used exclusively for replica data, keyed by the source
// shard whose primaries it mirrors. Primary and replica requests never
// share a key namespace, so a shard can hold both its own primary range and
// another shard's replica range without collision.
//
// # Thread Safety
//
// Server holds no mutable state of its own; every handler delegates
// directly to its KeyValueStorage/VectorIndex, both of which are already
// safe for concurrent use.
package shardnode
