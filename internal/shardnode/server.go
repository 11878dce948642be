package shardnode

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dreamware/vecdb/internal/kvstore"
	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectorindex"
	"github.com/dreamware/vecdb/internal/vectortypes"
	"github.com/dreamware/vecdb/internal/wire"
)

// Server is the storage-node RPC handler set. Router returns an
// *mux.Router wired with every endpoint the coordinator's
// internal/storageclient.HTTPClient dials.
type Server struct {
	store        kvstore.KeyValueStorage
	replicaStore kvstore.KeyValueStorage
	index        vectorindex.VectorIndex
	logger       *zap.SugaredLogger
}

// NewServer builds a Server. store holds this shard's own primary data;
// replicaStore holds replica data this shard mirrors on behalf of other
// shards, kept separate so the two ranges never collide on id.
func NewServer(store, replicaStore kvstore.KeyValueStorage, index vectorindex.VectorIndex, logger *zap.SugaredLogger) *Server {
	return &Server{store: store, replicaStore: replicaStore, index: index, logger: logger}
}

// replicaNamespace scopes a database id by the source shard whose replica
// data is being read or written, so PutVectorReplica/GetVectorReplica calls
// from different source shards for the same database never collide.
func replicaNamespace(sourceShardID, databaseID string) string {
	return sourceShardID + "\x00" + databaseID
}

// Router builds the mux.Router exposing this Server's endpoints under
// /api/v1/storage.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1/storage").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/scanRange", s.handleScanRange).Methods(http.MethodGet)

	api.HandleFunc("/databases", s.handleCreateDatabase).Methods(http.MethodPost)
	api.HandleFunc("/databases/{db}", s.handleDeleteDatabase).Methods(http.MethodDelete)
	api.HandleFunc("/databases/{db}/rebuild", s.handleRebuildDatabase).Methods(http.MethodPost)

	api.HandleFunc("/vectors/{db}", s.handlePutVector).Methods(http.MethodPut)
	api.HandleFunc("/vectors/{db}/{id}", s.handleGetVector).Methods(http.MethodGet)
	api.HandleFunc("/vectors/{db}/{id}", s.handleDeleteVector).Methods(http.MethodDelete)

	api.HandleFunc("/vectors/{db}/replicas", s.handlePutVectorReplica).Methods(http.MethodPut)
	api.HandleFunc("/vectors/{db}/replicas/{id}", s.handleGetVectorReplica).Methods(http.MethodGet)
	api.HandleFunc("/vectors/{db}/replicas/{id}", s.handleDeleteVectorReplica).Methods(http.MethodDelete)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("UP"))
}

func (s *Server) handlePutVector(w http.ResponseWriter, r *http.Request) {
	db := mux.Vars(r)["db"]

	var entry vectortypes.VectorEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	entry.DatabaseID = db

	if err := s.checkDimension(db, entry); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.PutVector(db, entry); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if s.index.IsBuilt(db) {
		if err := s.index.Add(db, entry); err != nil {
			s.logger.Warnw("index add failed", "db", db, "id", entry.ID, "error", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(struct {
		ID int64 `json:"id"`
	}{ID: entry.ID})
}

func (s *Server) checkDimension(db string, entry vectortypes.VectorEntry) error {
	info, ok, err := s.store.GetDatabaseInfo(db)
	if err != nil {
		return err
	}
	if !ok {
		return vdberrors.UnknownDatabaseError{DatabaseID: db}
	}
	if len(entry.Embedding) != info.Dimension {
		return vdberrors.DimensionMismatchError{DatabaseID: db, Want: info.Dimension, Got: len(entry.Embedding)}
	}
	return nil
}

func (s *Server) handleGetVector(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	entry, ok, err := s.store.GetVector(vars["db"], id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

func (s *Server) handleDeleteVector(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	ok, err := s.store.DeleteVector(vars["db"], id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if s.index.IsBuilt(vars["db"]) {
		if _, err := s.index.Remove(vars["db"], id); err != nil {
			s.logger.Warnw("index remove failed", "db", vars["db"], "id", id, "error", err)
		}
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch responds with the binary SearchResult wire format, not
// JSON, since fan-out search responses are on the coordinator's hot path
// and the wire codec is dramatically cheaper to encode/decode at scale.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DatabaseID    string    `json:"databaseId"`
		Query         []float32 `json:"query"`
		K             int       `json:"k"`
		SourceShardID string    `json:"sourceShardId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var results []vectortypes.SearchResult
	var err error
	if req.SourceShardID != "" {
		results, err = s.searchReplica(req.SourceShardID, req.DatabaseID, req.Query, req.K)
	} else {
		results, err = s.index.Search(req.DatabaseID, req.Query, req.K)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(wire.EncodeSearchResults(results))
}

// searchReplica brute-force scores a replica partition directly against
// replicaStore rather than through the primary VectorIndex, since replica
// data never gets its own index build.
func (s *Server) searchReplica(sourceShardID, databaseID string, query []float32, k int) ([]vectortypes.SearchResult, error) {
	entries, err := s.replicaStore.GetAllVectors(replicaNamespace(sourceShardID, databaseID))
	if err != nil {
		return nil, err
	}
	// Delegate scoring to a scratch index. It always scores by Euclidean
	// distance, whatever metric the primary index uses.
	scratch := vectorindex.NewFlatIndex(vectorindex.MetricEuclidean)
	if len(entries) > 0 {
		scratch.SetDimension(len(entries[0].Embedding))
	}
	if err := scratch.Build(databaseID); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := scratch.Add(databaseID, e); err != nil {
			return nil, err
		}
	}
	return scratch.Search(databaseID, query, k)
}

func (s *Server) handleCreateDatabase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Dimension int    `json:"dimension"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Dimension <= 0 {
		http.Error(w, "dimension must be positive", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	info := vectortypes.DatabaseInfo{ID: req.ID, Name: req.Name, Dimension: req.Dimension}
	if err := s.store.PutDatabaseInfo(info); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.index.SetDimension(req.Dimension)
	if err := s.index.Build(req.ID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (s *Server) handleDeleteDatabase(w http.ResponseWriter, r *http.Request) {
	db := mux.Vars(r)["db"]
	ok, err := s.store.DeleteDatabaseInfo(db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.index.Clear(db); err != nil {
		s.logger.Warnw("index clear failed", "db", db, "error", err)
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRebuildDatabase reconstructs a database's in-memory index from its
// durable vectors, used after a restart or after a corrupted index save.
func (s *Server) handleRebuildDatabase(w http.ResponseWriter, r *http.Request) {
	db := mux.Vars(r)["db"]

	info, ok, err := s.store.GetDatabaseInfo(db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "unknown database", http.StatusNotFound)
		return
	}

	s.index.SetDimension(info.Dimension)
	if err := s.index.Build(db); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	entries, err := s.store.GetAllVectors(db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	for _, e := range entries {
		if err := s.index.Add(db, e); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScanRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err1 := strconv.ParseInt(q.Get("from"), 10, 64)
	to, err2 := strconv.ParseInt(q.Get("to"), 10, 64)
	limit, err3 := strconv.Atoi(q.Get("limit"))
	if err1 != nil || err2 != nil || err3 != nil {
		http.Error(w, "invalid query parameters", http.StatusBadRequest)
		return
	}

	entries, err := s.store.ScanRange(q.Get("db"), from, to, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (s *Server) handlePutVectorReplica(w http.ResponseWriter, r *http.Request) {
	db := mux.Vars(r)["db"]
	var req struct {
		Entry         vectortypes.VectorEntry `json:"entry"`
		SourceShardID string                  `json:"sourceShardId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := s.replicaStore.PutVector(replicaNamespace(req.SourceShardID, db), req.Entry); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetVectorReplica(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	sourceShardID := r.URL.Query().Get("sourceShardId")

	entry, ok, err := s.replicaStore.GetVector(replicaNamespace(sourceShardID, vars["db"]), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}

func (s *Server) handleDeleteVectorReplica(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	sourceShardID := r.URL.Query().Get("sourceShardId")

	ok, err := s.replicaStore.DeleteVector(replicaNamespace(sourceShardID, vars["db"]), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case vdberrors.UnknownDatabaseError:
		http.Error(w, err.Error(), http.StatusNotFound)
	case vdberrors.DimensionMismatchError:
		http.Error(w, err.Error(), http.StatusBadRequest)
	case vdberrors.InvalidArgumentError:
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
