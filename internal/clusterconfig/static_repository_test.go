package clusterconfig

import (
	"testing"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

func TestStaticRepositorySetNotifiesCallbacks(t *testing.T) {
	initial := vectortypes.ClusterConfig{Shards: []vectortypes.ShardConfig{
		{ShardID: "s1", BaseURL: "http://s1", HashKey: 100, Status: vectortypes.ShardStatusActive},
	}}
	repo := NewStaticRepository(initial)

	var gotCount int
	unregister := repo.OnChange(func(cfg vectortypes.ClusterConfig) {
		gotCount = len(cfg.Shards)
	})
	defer unregister()

	next := vectortypes.ClusterConfig{Shards: []vectortypes.ShardConfig{
		{ShardID: "s1", BaseURL: "http://s1", HashKey: 100, Status: vectortypes.ShardStatusActive},
		{ShardID: "s2", BaseURL: "http://s2", HashKey: 200, Status: vectortypes.ShardStatusActive},
	}}
	repo.Set(next)

	if gotCount != 2 {
		t.Fatalf("callback saw %d shards, want 2", gotCount)
	}

	cfg, err := repo.GetClusterConfig()
	if err != nil {
		t.Fatalf("GetClusterConfig() error = %v", err)
	}
	if len(cfg.Shards) != 2 {
		t.Fatalf("GetClusterConfig() = %d shards, want 2", len(cfg.Shards))
	}
}

func TestStaticRepositoryUnregisterStopsNotifications(t *testing.T) {
	repo := NewStaticRepository(vectortypes.ClusterConfig{})
	calls := 0
	unregister := repo.OnChange(func(vectortypes.ClusterConfig) { calls++ })
	unregister()

	repo.Set(vectortypes.ClusterConfig{Shards: []vectortypes.ShardConfig{
		{ShardID: "s1", BaseURL: "http://s1", HashKey: 100, Status: vectortypes.ShardStatusActive},
	}})

	if calls != 0 {
		t.Fatalf("callback invoked %d times after unregister, want 0", calls)
	}
}
