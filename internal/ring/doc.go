// Package ring implements the deterministic hashing and consistent hash
// ring that vecdb uses to place vectors on shards.
//
// # Overview
//
// HashService reduces a vector id to a well-distributed, nonnegative 63-bit
// value using a fixed SplitMix64-derived mixing function. HashRing takes an
// ordered set of shards (sorted by their configured hash key) and answers
// "which shard owns this hash" and "which shard is next after this one's
// owner" — the two primitives the ownership and router layers build on.
//
// # Thread Safety
//
// A HashRing is immutable once built; callers rebuild and atomically swap a
// new HashRing whenever the underlying ClusterConfig changes, replacing the
// whole value rather than mutating it in place.
package ring
