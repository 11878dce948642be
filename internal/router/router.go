package router

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dreamware/vecdb/internal/ownership"
	"github.com/dreamware/vecdb/internal/ring"
	"github.com/dreamware/vecdb/internal/storageclient"
	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

// Availability reports whether a shard is currently reachable, the sole
// signal the Router trusts when deciding to route directly to a shard
// versus failing over to its replica location. ShardHealthMonitor
// satisfies this interface.
type Availability interface {
	IsShardAvailable(shardID string) bool
}

// ClientFactory builds (or returns a cached) StorageClient for a shard, so
// the Router never has to know whether that means dialing HTTP or reusing a
// pooled connection.
type ClientFactory func(shard vectortypes.ShardInfo) storageclient.StorageClient

// SearchResponse is the Router's answer to a fan-out search: the globally
// merged top-k results plus, when any partition could not be served, the
// ids of the shards that were skipped.
type SearchResponse struct {
	Results           []vectortypes.SearchResult
	MissingPartitions []string
}

// Router is the coordinator's single entry point for per-key and fan-out
// operations. It is safe for concurrent use; Rebuild swaps its topology
// atomically without blocking in-flight requests.
type Router struct {
	hasher  ring.HashService
	health  Availability
	clients ClientFactory
	logger  *zap.SugaredLogger

	ringPtr      atomic.Pointer[ring.HashRing]
	ownershipPtr atomic.Pointer[ownership.ShardOwnership]

	cache     map[string]storageclient.StorageClient
	cacheLock sync.RWMutex

	requestsTotal *prometheus.CounterVec
}

// New builds a Router with no topology; Rebuild must be called at least
// once (typically from the cluster config repository's initial load and
// every subsequent OnChange callback) before routing any request.
func New(health Availability, clients ClientFactory, logger *zap.SugaredLogger) *Router {
	return &Router{
		hasher:  ring.NewHashService(),
		health:  health,
		clients: clients,
		logger:  logger,
		cache:   make(map[string]storageclient.StorageClient),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdb_router_requests_total",
			Help: "Requests handled by the router, by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
}

// Collectors returns the Prometheus collectors the caller should register,
// mirroring internal/healthmonitor.ShardHealthMonitor.Collectors.
func (r *Router) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.requestsTotal}
}

func (r *Router) observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.requestsTotal.WithLabelValues(operation, outcome).Inc()
}

// Rebuild publishes a new HashRing and ShardOwnership derived from shards.
// Requests already in flight keep using the snapshot they captured.
func (r *Router) Rebuild(shards []vectortypes.ShardInfo) {
	newRing := ring.NewHashRing(shards)
	newOwnership := ownership.NewShardOwnership(newRing)
	r.ringPtr.Store(&newRing)
	r.ownershipPtr.Store(&newOwnership)

	r.cacheLock.Lock()
	r.cache = make(map[string]storageclient.StorageClient)
	r.cacheLock.Unlock()
}

func (r *Router) snapshot() (ring.HashRing, ownership.ShardOwnership, error) {
	rp := r.ringPtr.Load()
	op := r.ownershipPtr.Load()
	if rp == nil || op == nil || rp.IsEmpty() {
		return ring.HashRing{}, ownership.ShardOwnership{}, vdberrors.ErrRingEmpty
	}
	return *rp, *op, nil
}

func (r *Router) clientFor(shard vectortypes.ShardInfo) storageclient.StorageClient {
	r.cacheLock.RLock()
	c, ok := r.cache[shard.ShardID]
	r.cacheLock.RUnlock()
	if ok {
		return c
	}

	r.cacheLock.Lock()
	defer r.cacheLock.Unlock()
	if c, ok := r.cache[shard.ShardID]; ok {
		return c
	}
	c = r.clients(shard)
	r.cache[shard.ShardID] = c
	return c
}

func (r *Router) shardByID(shards []vectortypes.ShardInfo, shardID string) (vectortypes.ShardInfo, bool) {
	for _, s := range shards {
		if s.ShardID == shardID {
			return s, true
		}
	}
	return vectortypes.ShardInfo{}, false
}

// Write stores entry in database db, routing by entry.ID's hash to its ring
// owner. The write fails fast (ShardUnavailableError) if the owner is
// unavailable; writes are never rerouted to a replica, since a degraded
// write would violate the placement model. On success, the entry is
// asynchronously replicated to the owner's replica location; replication
// failure is logged but never fails the write.
func (r *Router) Write(ctx context.Context, db string, entry vectortypes.VectorEntry) (err error) {
	defer func() { r.observe("write", err) }()

	rg, own, err := r.snapshot()
	if err != nil {
		return err
	}

	h := r.hasher.Hash(entry.ID)
	owner, err := rg.Locate(h)
	if err != nil {
		return err
	}
	if !owner.IsActiveForWrite() || !r.health.IsShardAvailable(owner.ShardID) {
		return vdberrors.ShardUnavailableError{ShardID: owner.ShardID}
	}

	if _, err := r.clientFor(owner).PutVector(ctx, db, entry); err != nil {
		return vdberrors.UpstreamFailureError{ShardID: owner.ShardID, Err: err}
	}

	go r.replicateWrite(own, rg, owner, db, entry)
	return nil
}

func (r *Router) replicateWrite(own ownership.ShardOwnership, rg ring.HashRing, owner vectortypes.ShardInfo, db string, entry vectortypes.VectorEntry) {
	if own.IsSelfReplica(owner.ShardID) {
		return
	}
	loc, ok := own.ReplicaLocation(owner.ShardID)
	if !ok {
		return
	}
	replica, ok := r.shardByID(rg.Shards(), loc)
	if !ok {
		return
	}
	if !r.health.IsShardAvailable(replica.ShardID) {
		r.logger.Warnw("skipping replica write, replica unavailable", "shard", owner.ShardID, "replica", replica.ShardID)
		return
	}

	ctx := context.Background()
	if err := r.clientFor(replica).PutVectorReplica(ctx, db, entry, owner.ShardID); err != nil {
		r.logger.Warnw("replica write failed", "shard", owner.ShardID, "replica", replica.ShardID, "error", err)
	}
}

// Read fetches the vector with the given id from database db. If the
// owning shard is unavailable, Read fails over to its replica location
// (when that replica is itself available); otherwise it returns
// ShardUnavailableError.
func (r *Router) Read(ctx context.Context, db string, id int64) (entry vectortypes.VectorEntry, ok bool, err error) {
	defer func() { r.observe("read", err) }()

	rg, own, err := r.snapshot()
	if err != nil {
		return vectortypes.VectorEntry{}, false, err
	}

	h := r.hasher.Hash(id)
	owner, err := rg.Locate(h)
	if err != nil {
		return vectortypes.VectorEntry{}, false, err
	}

	if r.health.IsShardAvailable(owner.ShardID) {
		entry, ok, err := r.clientFor(owner).GetVector(ctx, db, id)
		if err != nil {
			return vectortypes.VectorEntry{}, false, vdberrors.UpstreamFailureError{ShardID: owner.ShardID, Err: err}
		}
		return entry, ok, nil
	}

	loc, ok := own.ReplicaLocation(owner.ShardID)
	if !ok || !r.health.IsShardAvailable(loc) {
		return vectortypes.VectorEntry{}, false, vdberrors.ShardUnavailableError{ShardID: owner.ShardID}
	}
	replica, ok := r.shardByID(rg.Shards(), loc)
	if !ok {
		return vectortypes.VectorEntry{}, false, vdberrors.ShardUnavailableError{ShardID: owner.ShardID}
	}
	entry, found, err := r.clientFor(replica).GetVectorReplica(ctx, db, id, owner.ShardID)
	if err != nil {
		return vectortypes.VectorEntry{}, false, vdberrors.UpstreamFailureError{ShardID: replica.ShardID, Err: err}
	}
	return entry, found, nil
}

// Delete removes the vector with the given id from database db, following
// the same primary-then-replica shape as Write: the primary delete must
// succeed against an available owner, and the replica delete is
// best-effort and never fails the call.
func (r *Router) Delete(ctx context.Context, db string, id int64) (ok bool, err error) {
	defer func() { r.observe("delete", err) }()

	rg, own, err := r.snapshot()
	if err != nil {
		return false, err
	}

	h := r.hasher.Hash(id)
	owner, err := rg.Locate(h)
	if err != nil {
		return false, err
	}
	if !r.health.IsShardAvailable(owner.ShardID) {
		return false, vdberrors.ShardUnavailableError{ShardID: owner.ShardID}
	}

	ok, err = r.clientFor(owner).DeleteVector(ctx, db, id)
	if err != nil {
		return false, vdberrors.UpstreamFailureError{ShardID: owner.ShardID, Err: err}
	}

	go r.replicateDelete(own, rg, owner, db, id)
	return ok, nil
}

func (r *Router) replicateDelete(own ownership.ShardOwnership, rg ring.HashRing, owner vectortypes.ShardInfo, db string, id int64) {
	if own.IsSelfReplica(owner.ShardID) {
		return
	}
	loc, ok := own.ReplicaLocation(owner.ShardID)
	if !ok || !r.health.IsShardAvailable(loc) {
		return
	}
	replica, ok := r.shardByID(rg.Shards(), loc)
	if !ok {
		return
	}
	ctx := context.Background()
	if err := r.clientFor(replica).DeleteVectorReplica(ctx, db, id, owner.ShardID); err != nil {
		r.logger.Warnw("replica delete failed", "shard", owner.ShardID, "replica", replica.ShardID, "error", err)
	}
}

// partition is one shard's contribution to a fan-out search: either the
// shard itself (served directly) or its replica location (served on the
// shard's behalf when the shard is unavailable).
type partition struct {
	sourceShardID string
	target        vectortypes.ShardInfo
	viaReplica    bool
}

// Search fans a top-k query out to every ACTIVE-for-read shard, using each
// shard's replica location as a stand-in when the shard itself is
// unavailable, and merges the per-shard result lists into one global
// top-k ordered by distance ascending, ties broken by smaller id. Shards
// whose partition could not be served (neither primary nor replica
// available) are named in SearchResponse.MissingPartitions rather than
// silently dropped.
func (r *Router) Search(ctx context.Context, db string, query []float32, k int) (resp SearchResponse, err error) {
	defer func() { r.observe("search", err) }()

	rg, own, err := r.snapshot()
	if err != nil {
		return SearchResponse{}, err
	}

	readable := ownership.ActiveForRead(rg.Shards())
	partitions := make([]partition, 0, len(readable))
	missing := make([]string, 0)

	for _, shard := range readable {
		if r.health.IsShardAvailable(shard.ShardID) {
			partitions = append(partitions, partition{sourceShardID: shard.ShardID, target: shard, viaReplica: false})
			continue
		}
		loc, ok := own.ReplicaLocation(shard.ShardID)
		if !ok || !r.health.IsShardAvailable(loc) {
			missing = append(missing, shard.ShardID)
			continue
		}
		replica, ok := r.shardByID(rg.Shards(), loc)
		if !ok {
			missing = append(missing, shard.ShardID)
			continue
		}
		partitions = append(partitions, partition{sourceShardID: shard.ShardID, target: replica, viaReplica: true})
	}

	type partial struct {
		results []vectortypes.SearchResult
		err     error
		shardID string
	}
	out := make([]partial, len(partitions))

	var wg sync.WaitGroup
	for i, p := range partitions {
		wg.Add(1)
		go func(i int, p partition) {
			defer wg.Done()
			q := storageclient.SearchQuery{DatabaseID: db, Query: query, K: k}
			if p.viaReplica {
				q.SourceShardID = p.sourceShardID
			}
			results, err := r.clientFor(p.target).Search(ctx, q)
			out[i] = partial{results: results, err: err, shardID: p.sourceShardID}
		}(i, p)
	}
	wg.Wait()

	var merged []vectortypes.SearchResult
	for _, p := range out {
		if p.err != nil {
			r.logger.Warnw("search partition failed", "shard", p.shardID, "error", p.err)
			missing = append(missing, p.shardID)
			continue
		}
		merged = append(merged, p.results...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Distance != merged[j].Distance {
			return merged[i].Distance < merged[j].Distance
		}
		return merged[i].Entry.ID < merged[j].Entry.ID
	})
	if k > 0 && len(merged) > k {
		merged = merged[:k]
	}

	sort.Strings(missing)
	return SearchResponse{Results: merged, MissingPartitions: missing}, nil
}
