// Package router implements the coordinator's read, write, delete, and
// fan-out search paths: hashing a key to its owning shard via the ring,
// checking availability via the health monitor, and falling back to a
// replica location via the ownership map exactly as far as the placement
// model allows.
//
// # Overview
//
// Router holds the current HashRing and ShardOwnership behind atomic
// pointers so a topology change (published by the cluster config
// repository) never blocks an in-flight request: each request snapshots
// both pointers once at the top and routes against that snapshot for its
// entire lifetime.
//
// # Thread Safety
//
// Rebuild may be called concurrently with any read/write/search method.
// Requests already in flight keep routing against the ring and ownership
// snapshot they captured; they never observe a half-updated topology.
package router
