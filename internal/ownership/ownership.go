package ownership

import (
	"github.com/dreamware/vecdb/internal/ring"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

// ShardOwnership maps every shard to the shard holding its replica data, and
// the reverse: every shard to the shards whose replicas it holds. Both maps
// are derived purely from ring order — a shard's replica always lives on
// its immediate ring successor.
type ShardOwnership struct {
	replicaLocation map[string]string
	replicaSources  map[string][]string
}

// NewShardOwnership builds a ShardOwnership from r. On a single-shard ring
// every shard is its own ring successor, so ReplicaLocation(s) == s;
// callers must treat a self-replica as a no-op rather than special-casing
// the ring size themselves.
func NewShardOwnership(r ring.HashRing) ShardOwnership {
	shards := r.Shards()
	loc := make(map[string]string, len(shards))
	src := make(map[string][]string, len(shards))

	for i, s := range shards {
		successor := shards[(i+1)%len(shards)]
		loc[s.ShardID] = successor.ShardID
		src[successor.ShardID] = append(src[successor.ShardID], s.ShardID)
	}
	return ShardOwnership{replicaLocation: loc, replicaSources: src}
}

// IsSelfReplica reports whether shardID's replica location is itself, the
// single-shard-ring case in which replication is a no-op.
func (o ShardOwnership) IsSelfReplica(shardID string) bool {
	loc, ok := o.replicaLocation[shardID]
	return ok && loc == shardID
}

// ReplicaLocation returns the shard holding the replica of data primary-owned
// by shardID, and false if shardID is unknown or has no replica location.
func (o ShardOwnership) ReplicaLocation(shardID string) (string, bool) {
	loc, ok := o.replicaLocation[shardID]
	return loc, ok
}

// ReplicaSources returns the shards whose replicas shardID holds, i.e. its
// ring predecessors. The returned slice is owned by the caller.
func (o ShardOwnership) ReplicaSources(shardID string) []string {
	src := o.replicaSources[shardID]
	cp := make([]string, len(src))
	copy(cp, src)
	return cp
}

// ReplicaLocationsForUnavailableShard returns the replica shard(s) a reader
// should fail over to when unavailableID cannot serve a read. It is exactly
// []string{ReplicaLocation(unavailableID)} when that location is itself in
// availableIDs, and empty otherwise — this is the sole input the router
// uses to decide whether a read can be salvaged at all.
func (o ShardOwnership) ReplicaLocationsForUnavailableShard(unavailableID string, availableIDs map[string]bool) []string {
	loc, ok := o.replicaLocation[unavailableID]
	if !ok || !availableIDs[loc] {
		return nil
	}
	return []string{loc}
}

// ActiveForRead filters shards down to those currently active for read,
// the set callers typically pass when building a read-routing ring.
func ActiveForRead(shards []vectortypes.ShardInfo) []vectortypes.ShardInfo {
	out := make([]vectortypes.ShardInfo, 0, len(shards))
	for _, s := range shards {
		if s.IsActiveForRead() {
			out = append(out, s)
		}
	}
	return out
}
