// Package main implements the vecdb coordinator: the control plane that
// tracks cluster topology, routes client requests to the right shard(s),
// and triggers data migration when that topology changes.
//
// The coordinator is responsible for:
//   - Loading and watching the cluster config (shard list, addresses, ring
//     positions) from a file-backed repository
//   - Probing every shard's health on a fixed interval
//   - Routing reads, writes, deletes, and fan-out searches via the Router
//   - Migrating data and replicas when a shard joins the ring
//   - Serving an admin HTTP surface and Prometheus metrics
//
// Configuration:
//   - COORDINATOR_LISTEN: listen address (default ":8080")
//   - CLUSTER_CONFIG_PATH: path to the YAML cluster config (required)
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dreamware/vecdb/internal/clusterconfig"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

func main() {
	listen := getenv("COORDINATOR_LISTEN", ":8080")
	configPath := mustGetenv("CLUSTER_CONFIG_PATH")

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	repo, err := clusterconfig.NewFileRepository(configPath, logger)
	if err != nil {
		logger.Fatalw("cluster config load failed", "path", configPath, "error", err)
	}
	defer repo.Close()

	cs := newCoordinatorState(repo, logger)
	cs.health.Start(context.Background())
	defer cs.health.Stop()

	for _, c := range cs.health.Collectors() {
		prometheus.MustRegister(c)
	}
	for _, c := range cs.router.Collectors() {
		prometheus.MustRegister(c)
	}
	for _, c := range cs.reb.Collectors() {
		prometheus.MustRegister(c)
	}

	unregister := repo.OnChange(cs.onConfigChange)
	defer unregister()

	initial, err := repo.GetClusterConfig()
	if err != nil {
		logger.Fatalw("initial cluster config invalid", "error", err)
	}
	cs.onConfigChange(initial)

	r := mux.NewRouter()
	r.HandleFunc("/v1/cluster", cs.handleCluster).Methods(http.MethodGet)
	r.HandleFunc("/v1/shards", cs.handleShards).Methods(http.MethodGet)
	r.HandleFunc("/v1/health", cs.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/databases/{db}/vectors", cs.handleWrite).Methods(http.MethodPut)
	r.HandleFunc("/v1/databases/{db}/vectors/{id}", cs.handleRead).Methods(http.MethodGet)
	r.HandleFunc("/v1/databases/{db}/vectors/{id}", cs.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/v1/databases/{db}/search", cs.handleSearch).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infow("coordinator listening", "addr", listen)
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
	logger.Info("coordinator stopped")
}

func (cs *coordinatorState) handleCluster(w http.ResponseWriter, r *http.Request) {
	cfg, err := cs.repo.GetClusterConfig()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

func (cs *coordinatorState) handleShards(w http.ResponseWriter, r *http.Request) {
	shards, err := cs.repo.GetShards()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	type shardView struct {
		vectortypes.ShardConfig
		Available bool `json:"available"`
	}
	views := make([]shardView, 0, len(shards))
	for _, s := range shards {
		views = append(views, shardView{ShardConfig: s, Available: cs.health.IsShardAvailable(s.ShardID)})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (cs *coordinatorState) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cs.health.Snapshot())
}

func (cs *coordinatorState) handleWrite(w http.ResponseWriter, r *http.Request) {
	db := mux.Vars(r)["db"]
	var entry vectortypes.VectorEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := cs.router.Write(r.Context(), db, entry); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (cs *coordinatorState) handleRead(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	entry, ok, err := cs.router.Read(r.Context(), vars["db"], id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

func (cs *coordinatorState) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	ok, err := cs.router.Delete(r.Context(), vars["db"], id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (cs *coordinatorState) handleSearch(w http.ResponseWriter, r *http.Request) {
	db := mux.Vars(r)["db"]
	var req struct {
		Query []float32 `json:"query"`
		K     int       `json:"k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	resp, err := cs.router.Search(r.Context(), db, req.Query, req.K)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustGetenv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}
