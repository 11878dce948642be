package ownership

import (
	"testing"

	"github.com/dreamware/vecdb/internal/ring"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

func shardInfo(id string, key int64) vectortypes.ShardInfo {
	return vectortypes.ShardInfo{ShardID: id, BaseURL: "http://" + id, HashKey: key, Status: vectortypes.ShardStatusActive}
}

func TestShardOwnershipReplicaLocationIsRingSuccessor(t *testing.T) {
	r := ring.NewHashRing([]vectortypes.ShardInfo{
		shardInfo("a", 100),
		shardInfo("b", 200),
		shardInfo("c", 300),
	})
	o := NewShardOwnership(r)

	loc, ok := o.ReplicaLocation("a")
	if !ok || loc != "b" {
		t.Fatalf("ReplicaLocation(a) = %v, %v, want b", loc, ok)
	}
	loc, ok = o.ReplicaLocation("c")
	if !ok || loc != "a" {
		t.Fatalf("ReplicaLocation(c) = %v, %v, want wraparound to a", loc, ok)
	}

	srcA := o.ReplicaSources("a")
	if len(srcA) != 1 || srcA[0] != "c" {
		t.Fatalf("ReplicaSources(a) = %v, want [c]", srcA)
	}
}

func TestShardOwnershipSingleShardIsSelfReplica(t *testing.T) {
	r := ring.NewHashRing([]vectortypes.ShardInfo{shardInfo("only", 100)})
	o := NewShardOwnership(r)
	loc, ok := o.ReplicaLocation("only")
	if !ok || loc != "only" {
		t.Fatalf("ReplicaLocation(only) = %v, %v, want (only, true)", loc, ok)
	}
	if !o.IsSelfReplica("only") {
		t.Fatal("IsSelfReplica(only) should be true on a single-shard ring")
	}
	srcs := o.ReplicaSources("only")
	if len(srcs) != 1 || srcs[0] != "only" {
		t.Fatalf("ReplicaSources(only) = %v, want [only]", srcs)
	}
}

func TestReplicaLocationsForUnavailableShardFailsOverWhenReplicaIsUp(t *testing.T) {
	r := ring.NewHashRing([]vectortypes.ShardInfo{
		shardInfo("a", 100),
		shardInfo("b", 200),
		shardInfo("c", 300),
	})
	o := NewShardOwnership(r)

	// c is down; its replica location is a (ring wraps c -> a), and a is up.
	available := map[string]bool{"a": true, "b": true}
	got := o.ReplicaLocationsForUnavailableShard("c", available)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("ReplicaLocationsForUnavailableShard(c) = %v, want [a]", got)
	}
}

func TestReplicaLocationsForUnavailableShardEmptyWhenReplicaAlsoDown(t *testing.T) {
	r := ring.NewHashRing([]vectortypes.ShardInfo{
		shardInfo("a", 100),
		shardInfo("b", 200),
		shardInfo("c", 300),
	})
	o := NewShardOwnership(r)

	// a is down; its replica location is b, which is also down here.
	available := map[string]bool{"c": true}
	got := o.ReplicaLocationsForUnavailableShard("a", available)
	if len(got) != 0 {
		t.Fatalf("ReplicaLocationsForUnavailableShard(a) = %v, want empty since replica location b is also down", got)
	}
}

func TestActiveForReadFiltersByStatus(t *testing.T) {
	shards := []vectortypes.ShardInfo{
		{ShardID: "a", Status: vectortypes.ShardStatusActive},
		{ShardID: "b", Status: vectortypes.ShardStatusNew},
	}
	got := ActiveForRead(shards)
	if len(got) != 1 || got[0].ShardID != "a" {
		t.Fatalf("ActiveForRead = %v, want only a", got)
	}
}
