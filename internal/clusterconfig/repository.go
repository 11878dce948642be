package clusterconfig

import (
	"github.com/dreamware/vecdb/internal/vectortypes"
)

// ChangeFunc is called with the new ClusterConfig every time the
// repository observes a change. Callbacks must not block; a repository may
// invoke them sequentially from its watch goroutine.
type ChangeFunc func(vectortypes.ClusterConfig)

// Repository is the contract the coordinator depends on for shard topology.
// The backing store is external and unspecified by design — a ZooKeeper-
// shaped watcher is assumed in production; FileRepository is the concrete,
// testable stand-in used here.
type Repository interface {
	// GetClusterConfig returns the current, validated ClusterConfig.
	GetClusterConfig() (vectortypes.ClusterConfig, error)

	// GetShards is a convenience accessor equivalent to
	// GetClusterConfig().Shards.
	GetShards() ([]vectortypes.ShardConfig, error)

	// OnChange registers a callback invoked whenever the repository
	// observes a new ClusterConfig. Returns a function that unregisters it.
	OnChange(fn ChangeFunc) (unregister func())

	// Close releases any resources (file watches, goroutines) held by the
	// repository.
	Close() error
}
