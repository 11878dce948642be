package ring

import (
	"sort"

	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

// HashRing is an ordered, circular arrangement of shards used to locate the
// owner of a hash. It is built once from a ClusterConfig snapshot and never
// mutated afterward; membership changes produce a new HashRing entirely.
//
// Construction sorts shards by HashKey ascending. For any query hash h, the
// owner is the first shard whose HashKey >= h, wrapping to the ring's
// minimum shard otherwise.
type HashRing struct {
	shards []vectortypes.ShardInfo
}

// NewHashRing builds a HashRing from shards, which need not already be
// sorted. An empty slice produces the empty-ring sentinel: every locate
// operation on it fails with vdberrors.ErrRingEmpty.
func NewHashRing(shards []vectortypes.ShardInfo) HashRing {
	cp := make([]vectortypes.ShardInfo, len(shards))
	copy(cp, shards)
	sort.Slice(cp, func(i, j int) bool { return cp[i].HashKey < cp[j].HashKey })
	return HashRing{shards: cp}
}

// IsEmpty reports whether the ring has no shards.
func (r HashRing) IsEmpty() bool {
	return len(r.shards) == 0
}

// Shards returns the ring's shards in ascending HashKey order. The returned
// slice is owned by the caller; mutating it does not affect the ring.
func (r HashRing) Shards() []vectortypes.ShardInfo {
	cp := make([]vectortypes.ShardInfo, len(r.shards))
	copy(cp, r.shards)
	return cp
}

// Locate returns the owner of hash h: the first shard whose HashKey >= h,
// wrapping to the ring's minimum-keyed shard if h exceeds every shard's key.
func (r HashRing) Locate(h int64) (vectortypes.ShardInfo, error) {
	if r.IsEmpty() {
		return vectortypes.ShardInfo{}, vdberrors.ErrRingEmpty
	}
	idx := sort.Search(len(r.shards), func(i int) bool { return r.shards[i].HashKey >= h })
	if idx == len(r.shards) {
		idx = 0
	}
	return r.shards[idx], nil
}

// LocateNext returns the successor of the shard that owns hash h: the shard
// at ring position (owner's position + 1) mod N. On a single-shard ring it
// returns that same shard, since its only successor is itself.
func (r HashRing) LocateNext(h int64) (vectortypes.ShardInfo, error) {
	if r.IsEmpty() {
		return vectortypes.ShardInfo{}, vdberrors.ErrRingEmpty
	}
	idx := sort.Search(len(r.shards), func(i int) bool { return r.shards[i].HashKey >= h })
	if idx == len(r.shards) {
		idx = 0
	}
	next := (idx + 1) % len(r.shards)
	return r.shards[next], nil
}

// successorOf returns the shard immediately following shardID in ring
// order, wrapping to the first shard. The ownership package computes the
// same successor itself from Shards() to derive replicaLocation.
func (r HashRing) successorOf(shardID string) (vectortypes.ShardInfo, bool) {
	for i, s := range r.shards {
		if s.ShardID == shardID {
			return r.shards[(i+1)%len(r.shards)], true
		}
	}
	return vectortypes.ShardInfo{}, false
}
