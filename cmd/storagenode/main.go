// Package main implements the vecdb storage node: the worker that owns one
// shard's primary vector data plus whatever replica data another shard's
// failover has assigned to it, and serves the RPC surface the coordinator's
// router and rebalancer dial.
//
// The storage node is responsible for:
//   - Serving vector/database CRUD and search over HTTP
//   - Maintaining an in-memory search index over its primary data
//   - Holding replica data for its ring predecessor's shard, namespace-
//     separated from its own primary data
//   - Reporting health on a simple liveness endpoint
//
// Configuration:
//   - STORAGENODE_LISTEN: listen address (default ":8090")
//   - STORAGENODE_METRIC: search distance metric, one of "euclidean",
//     "cosine", "dot" (default "euclidean")
//   - STORAGENODE_DATA_DIR: if set, vectors persist to an embedded Badger
//     database under this directory; if unset, storage is in-memory only
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dreamware/vecdb/internal/kvstore"
	"github.com/dreamware/vecdb/internal/shardnode"
	"github.com/dreamware/vecdb/internal/vectorindex"
)

func main() {
	listen := getenv("STORAGENODE_LISTEN", ":8090")
	metricName := getenv("STORAGENODE_METRIC", "euclidean")
	dataDir := os.Getenv("STORAGENODE_DATA_DIR")

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	metric, err := parseMetric(metricName)
	if err != nil {
		logger.Fatalw("invalid metric", "metric", metricName, "error", err)
	}

	store, replicaStore, closeStores := openStores(dataDir, logger)
	defer closeStores()

	index := vectorindex.NewFlatIndex(metric)
	if err := rebuildIndex(store, index); err != nil {
		logger.Fatalw("initial index build failed", "error", err)
	}

	srv := shardnode.NewServer(store, replicaStore, index, logger)

	router := srv.Router()
	router.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infow("storage node listening", "addr", listen, "metric", metricName, "dataDir", dataDir)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warnw("shutdown error", "error", err)
	}
	logger.Info("storage node stopped")
}

// openStores selects the storage backend: a durable Badger store under
// dataDir when one is configured, or a plain in-memory store otherwise.
// Replica data always gets its own store instance so a restart never mixes
// primary and replica keyspaces even if both ultimately share one Badger
// directory's prefix scheme.
func openStores(dataDir string, logger *zap.SugaredLogger) (kvstore.KeyValueStorage, kvstore.KeyValueStorage, func()) {
	if dataDir == "" {
		return kvstore.NewMemoryStore(), kvstore.NewMemoryStore(), func() {}
	}

	primary, err := kvstore.OpenBadgerStore(dataDir + "/primary")
	if err != nil {
		logger.Fatalw("opening primary badger store", "dir", dataDir, "error", err)
	}
	replica, err := kvstore.OpenBadgerStore(dataDir + "/replica")
	if err != nil {
		logger.Fatalw("opening replica badger store", "dir", dataDir, "error", err)
	}
	return primary, replica, func() {
		primary.Close()
		replica.Close()
	}
}

// rebuildIndex seeds index from every database's persisted vectors so a
// restarted node can serve search immediately instead of waiting for the
// first rebuild request.
func rebuildIndex(store kvstore.KeyValueStorage, index vectorindex.VectorIndex) error {
	databases, err := store.GetAllDatabases()
	if err != nil {
		return err
	}
	for _, db := range databases {
		index.SetDimension(db.Dimension)
		if err := index.Build(db.ID); err != nil {
			return err
		}
		entries, err := store.GetAllVectors(db.ID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := index.Add(db.ID, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseMetric(name string) (vectorindex.Metric, error) {
	switch name {
	case "euclidean":
		return vectorindex.MetricEuclidean, nil
	case "cosine":
		return vectorindex.MetricCosine, nil
	case "dot":
		return vectorindex.MetricDotProduct, nil
	default:
		return 0, errUnknownMetric(name)
	}
}

type errUnknownMetric string

func (e errUnknownMetric) Error() string { return "unknown metric: " + string(e) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
