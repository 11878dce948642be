package rebalancer

import (
	"context"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dreamware/vecdb/internal/ring"
	"github.com/dreamware/vecdb/internal/storageclient"
)

// replicaRehomeConcurrency bounds how many ids rehomeReplicas moves at once,
// keeping one slow replica node from serializing an entire batch.
const replicaRehomeConcurrency = 8

// DefaultBatchSize is the number of vectors scanned and migrated per
// iteration of the batch loop.
const DefaultBatchSize = 500

// Migration describes one range handoff: the shard that currently owns the
// moving key range, the shard taking it over, and the ring predecessor of
// targetShard that bounds the range on its low end.
type Migration struct {
	SourceShard   string
	TargetShard   string
	PreviousShard string

	SourceClient storageclient.StorageClient
	TargetClient storageclient.StorageClient

	// SourceReplicaShardID/TargetReplicaShardID are the shard ids holding
	// sourceShard's and targetShard's replica data under the ring topology
	// in effect before and after this migration, respectively. Either may
	// be empty when no replica location is known for that shard.
	SourceReplicaShardID string
	TargetReplicaShardID string

	// SourceReplicaClient/TargetReplicaClient are the clients for the
	// above shard ids. Either may be nil when the corresponding id is
	// empty.
	SourceReplicaClient storageclient.StorageClient
	TargetReplicaClient storageclient.StorageClient

	Predicate RangePredicate
}

// ShardRebalancer migrates vector data and replicas between shards in
// fixed-size, resumable batches, always writing the new copy before
// deleting the old one.
type ShardRebalancer struct {
	batchSize int
	logger    *zap.SugaredLogger

	vectorsMoved prometheus.Counter
	batchesRun   prometheus.Counter
}

// Option configures a ShardRebalancer.
type Option func(*ShardRebalancer)

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(r *ShardRebalancer) { r.batchSize = n }
}

// New builds a ShardRebalancer.
func New(logger *zap.SugaredLogger, opts ...Option) *ShardRebalancer {
	r := &ShardRebalancer{
		batchSize: DefaultBatchSize,
		logger:    logger,
		vectorsMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vecdb_rebalancer_vectors_moved_total",
			Help: "Primary vectors migrated by the rebalancer across all runs.",
		}),
		batchesRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vecdb_rebalancer_batches_total",
			Help: "Scan-and-migrate batches the rebalancer has executed.",
		}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collectors returns the Prometheus collectors the caller should register,
// mirroring internal/healthmonitor.ShardHealthMonitor.Collectors.
func (r *ShardRebalancer) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.vectorsMoved, r.batchesRun}
}

// Migrate moves every vector in databaseID whose id hash falls in m's range
// from m.SourceClient to m.TargetClient, batch by batch, re-homing replicas
// as it goes. It returns the total number of primaries moved.
func (r *ShardRebalancer) Migrate(ctx context.Context, m Migration, databaseID string) (int, error) {
	hasher := ring.NewHashService()
	lastID := int64(math.MinInt64)
	moved := 0

	for {
		batch, err := m.SourceClient.ScanRange(ctx, databaseID, lastID, math.MaxInt64, r.batchSize)
		if err != nil {
			return moved, err
		}
		if len(batch) == 0 {
			return moved, nil
		}
		r.batchesRun.Inc()

		maxID := batch[0].ID
		for _, e := range batch {
			if e.ID > maxID {
				maxID = e.ID
			}
		}
		lastID = maxID

		var toMove []int64
		for _, e := range batch {
			if !m.Predicate.Contains(hasher.Hash(e.ID)) {
				continue
			}
			if _, err := m.TargetClient.PutVector(ctx, databaseID, e); err != nil {
				return moved, err
			}
			if _, err := m.SourceClient.DeleteVector(ctx, databaseID, e.ID); err != nil {
				return moved, err
			}
			toMove = append(toMove, e.ID)
			moved++
			r.vectorsMoved.Inc()
		}

		r.rehomeReplicas(ctx, m, databaseID, toMove)
	}
}

// rehomeReplicas moves the replica copies of the ids that just moved from
// sourceReplicaClient to targetReplicaClient. Failures are logged and never
// abort the primary migration.
func (r *ShardRebalancer) rehomeReplicas(ctx context.Context, m Migration, databaseID string, ids []int64) {
	if m.SourceReplicaShardID == "" || m.TargetReplicaShardID == "" {
		return
	}
	if m.SourceReplicaShardID == m.TargetReplicaShardID {
		return
	}
	if m.SourceReplicaClient == nil || m.TargetReplicaClient == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(replicaRehomeConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			r.rehomeOne(gctx, m, databaseID, id)
			return nil
		})
	}
	_ = g.Wait()
}

// rehomeOne moves a single id's replica copy. Every failure is logged and
// swallowed: a replica re-home error must never fail the primary migration
// it rides along with.
func (r *ShardRebalancer) rehomeOne(ctx context.Context, m Migration, databaseID string, id int64) {
	entry, ok, err := m.SourceReplicaClient.GetVectorReplica(ctx, databaseID, id, m.SourceShard)
	if err != nil {
		r.logger.Warnw("replica re-home: fetch failed", "id", id, "source", m.SourceShard, "error", err)
		return
	}
	if !ok {
		return
	}
	if err := m.TargetReplicaClient.PutVectorReplica(ctx, databaseID, entry, m.TargetShard); err != nil {
		r.logger.Warnw("replica re-home: put failed", "id", id, "target", m.TargetShard, "error", err)
		return
	}
	if err := m.SourceReplicaClient.DeleteVectorReplica(ctx, databaseID, id, m.SourceShard); err != nil {
		r.logger.Warnw("replica re-home: delete failed", "id", id, "source", m.SourceShard, "error", err)
	}
}
