// Package rebalancer migrates vector data and replicas between shards when
// ring membership changes: a shard joining (NEW -> ACTIVE) or leaving takes
// over part of its neighbor's key range, and ShardRebalancer moves that
// range's primaries and replicas to match.
//
// # Overview
//
// Migration proceeds in fixed-size batches, always putting a vector onto
// its new owner before deleting it from its old one, so a crash mid-batch
// leaves a vector duplicated rather than lost. The loop is resumable from
// any lastId: restarting it simply re-scans and re-applies, which is safe
// because PutVector is idempotent on (database, id).
//
// # Thread Safety
//
// One ShardRebalancer migration runs sequentially against one (source,
// target) pair; callers wanting concurrent migrations across independent
// shard pairs should run separate Migrate calls in separate goroutines.
package rebalancer
