package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dreamware/vecdb/internal/clusterconfig"
	"github.com/dreamware/vecdb/internal/healthmonitor"
	"github.com/dreamware/vecdb/internal/ownership"
	"github.com/dreamware/vecdb/internal/rebalancer"
	"github.com/dreamware/vecdb/internal/ring"
	"github.com/dreamware/vecdb/internal/router"
	"github.com/dreamware/vecdb/internal/storageclient"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

// coordinatorState ties the cluster config repository, health monitor, and
// router together and reacts to topology changes by triggering the
// rebalancer for whatever key range just moved.
type coordinatorState struct {
	repo   clusterconfig.Repository
	health *healthmonitor.ShardHealthMonitor
	router *router.Router
	reb    *rebalancer.ShardRebalancer
	logger *zap.SugaredLogger

	mu       sync.Mutex
	prevRing ring.HashRing
	prevOwn  ownership.ShardOwnership
	haveRing bool
}

func newCoordinatorState(repo clusterconfig.Repository, logger *zap.SugaredLogger) *coordinatorState {
	cs := &coordinatorState{repo: repo, logger: logger, reb: rebalancer.New(logger)}

	provider := func() ([]vectortypes.ShardInfo, error) {
		configured, err := repo.GetShards()
		if err != nil {
			return nil, err
		}
		infos := make([]vectortypes.ShardInfo, len(configured))
		for i, c := range configured {
			infos[i] = vectortypes.ShardInfoFromConfig(c)
		}
		return infos, nil
	}
	cs.health = healthmonitor.NewShardHealthMonitor(provider, logger)

	factory := func(shard vectortypes.ShardInfo) storageclient.StorageClient {
		return storageclient.NewHTTPClient(shard.BaseURL, nil)
	}
	cs.router = router.New(cs.health, factory, logger)
	return cs
}

// onConfigChange republishes the router's topology and, once a previous
// ring is known, hands the old and new rings to rebalanceForNewShards.
func (cs *coordinatorState) onConfigChange(cfg vectortypes.ClusterConfig) {
	shards := make([]vectortypes.ShardInfo, len(cfg.Shards))
	for i, c := range cfg.Shards {
		shards[i] = vectortypes.ShardInfoFromConfig(c)
	}
	cs.router.Rebuild(shards)

	newRing := ring.NewHashRing(shards)
	newOwn := ownership.NewShardOwnership(newRing)

	cs.mu.Lock()
	oldRing, oldOwn, haveOld := cs.prevRing, cs.prevOwn, cs.haveRing
	cs.prevRing, cs.prevOwn, cs.haveRing = newRing, newOwn, true
	cs.mu.Unlock()

	if !haveOld || newRing.IsEmpty() {
		return
	}
	go cs.rebalanceForNewShards(oldRing, oldOwn, newRing, newOwn, shards)
}

// rebalanceForNewShards migrates the key range taken over by every shard
// that joined the ring: one whose own hash key was owned by a different
// shard in oldRing. A shard leaving the ring starts no migration; the
// range it owned is not moved to its successor.
func (cs *coordinatorState) rebalanceForNewShards(oldRing ring.HashRing, oldOwn ownership.ShardOwnership, newRing ring.HashRing, newOwn ownership.ShardOwnership, shards []vectortypes.ShardInfo) {
	for _, target := range newRing.Shards() {
		previous, ok := ringPredecessor(newRing, target.ShardID)
		if !ok || previous.ShardID == target.ShardID {
			continue
		}

		oldOwner, err := oldRing.Locate(target.HashKey)
		if err != nil || oldOwner.ShardID == target.ShardID {
			continue
		}

		m := rebalancer.Migration{
			SourceShard:   oldOwner.ShardID,
			TargetShard:   target.ShardID,
			PreviousShard: previous.ShardID,
			SourceClient:  storageclient.NewHTTPClient(oldOwner.BaseURL, nil),
			TargetClient:  storageclient.NewHTTPClient(target.BaseURL, nil),
			Predicate:     rebalancer.NewRangePredicate(previous.HashKey, target.HashKey),
		}
		if loc, ok := oldOwn.ReplicaLocation(oldOwner.ShardID); ok {
			if shard, ok := shardByID(shards, loc); ok {
				m.SourceReplicaShardID = loc
				m.SourceReplicaClient = storageclient.NewHTTPClient(shard.BaseURL, nil)
			}
		}
		if loc, ok := newOwn.ReplicaLocation(target.ShardID); ok {
			if shard, ok := shardByID(shards, loc); ok {
				m.TargetReplicaShardID = loc
				m.TargetReplicaClient = storageclient.NewHTTPClient(shard.BaseURL, nil)
			}
		}

		cs.logger.Infow("rebalance starting", "source", m.SourceShard, "target", m.TargetShard)
		for _, db := range cs.knownDatabases() {
			moved, err := cs.reb.Migrate(context.Background(), m, db)
			if err != nil {
				cs.logger.Warnw("rebalance failed", "source", m.SourceShard, "target", m.TargetShard, "database", db, "error", err)
				continue
			}
			cs.logger.Infow("rebalance batch complete", "source", m.SourceShard, "target", m.TargetShard, "database", db, "moved", moved)
		}
	}
}

// knownDatabases is a placeholder for database discovery: the coordinator
// has no database registry of its own (database metadata lives per-shard),
// so callers wire this to whatever catalog the deployment uses. Returning
// none here means rebalancing is a no-op until that catalog is supplied.
func (cs *coordinatorState) knownDatabases() []string {
	return nil
}

func ringPredecessor(r ring.HashRing, shardID string) (vectortypes.ShardInfo, bool) {
	shards := r.Shards()
	if len(shards) == 0 {
		return vectortypes.ShardInfo{}, false
	}
	for i, s := range shards {
		if s.ShardID == shardID {
			return shards[(i-1+len(shards))%len(shards)], true
		}
	}
	return vectortypes.ShardInfo{}, false
}

func shardByID(shards []vectortypes.ShardInfo, shardID string) (vectortypes.ShardInfo, bool) {
	for _, s := range shards {
		if s.ShardID == shardID {
			return s, true
		}
	}
	return vectortypes.ShardInfo{}, false
}
