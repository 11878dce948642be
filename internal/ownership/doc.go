// Package ownership derives primary-to-replica shard placement from a
// HashRing snapshot and answers the one question the router needs to fail
// a read over to a replica: where else might this data live.
//
// # Overview
//
// A ShardOwnership is built once from a ring.HashRing and is immutable
// afterward; callers atomically swap in a new ShardOwnership whenever ring
// membership changes, following the same swap-the-whole-snapshot pattern
// used for the ring itself.
package ownership
