package shardnode

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dreamware/vecdb/internal/kvstore"
	"github.com/dreamware/vecdb/internal/vectorindex"
	"github.com/dreamware/vecdb/internal/vectortypes"
	"github.com/dreamware/vecdb/internal/wire"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := kvstore.NewMemoryStore()
	replicaStore := kvstore.NewMemoryStore()
	index := vectorindex.NewFlatIndex(vectorindex.MetricEuclidean)
	s := NewServer(store, replicaStore, index, zap.NewNop().Sugar())
	return httptest.NewServer(s.Router())
}

func TestServerHealth(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/storage/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func createDatabase(t *testing.T, baseURL, id string, dim int) {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"id": id, "name": id, "dimension": dim})
	resp, err := http.Post(baseURL+"/api/v1/storage/databases", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerPutAndGetVector(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	createDatabase(t, srv.URL, "images", 2)

	entry := vectortypes.VectorEntry{ID: 1, Embedding: []float32{1, 2}}
	body, _ := json.Marshal(entry)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/storage/vectors/images", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/v1/storage/vectors/images/1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var got vectortypes.VectorEntry
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&got))
	require.Equal(t, int64(1), got.ID)
}

func TestServerCreateDatabaseGeneratesIDWhenOmitted(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"name": "images", "dimension": 2})
	resp, err := http.Post(srv.URL+"/api/v1/storage/databases", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info vectortypes.DatabaseInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	require.NotEmpty(t, info.ID)
}

func TestServerPutVectorRejectsDimensionMismatch(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	createDatabase(t, srv.URL, "images", 3)

	entry := vectortypes.VectorEntry{ID: 1, Embedding: []float32{1, 2}}
	body, _ := json.Marshal(entry)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/storage/vectors/images", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerSearchReturnsWireFormat(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	createDatabase(t, srv.URL, "images", 2)

	for id := int64(1); id <= 3; id++ {
		entry := vectortypes.VectorEntry{ID: id, Embedding: []float32{float32(id), 0}}
		body, _ := json.Marshal(entry)
		req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/storage/vectors/images", bytes.NewReader(body))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
	}

	query := map[string]any{"databaseId": "images", "query": []float32{0, 0}, "k": 2}
	body, _ := json.Marshal(query)
	resp, err := http.Post(srv.URL+"/api/v1/storage/search", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	results, err := wire.DecodeSearchResults(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, int64(1), results[0].Entry.ID)
}

func TestServerDeleteVectorNotFound(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	createDatabase(t, srv.URL, "images", 2)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/storage/vectors/images/99", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerReplicaPutGetDelete(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	entry := vectortypes.VectorEntry{ID: 5, Embedding: []float32{1, 1}, DatabaseID: "images"}
	body, _ := json.Marshal(map[string]any{"entry": entry, "sourceShardId": "s1"})
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/storage/vectors/images/replicas", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/v1/storage/vectors/images/replicas/5?sourceShardId=s1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	delReq, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/storage/vectors/images/replicas/5?sourceShardId=s1", nil)
	delResp, err := http.DefaultClient.Do(delReq)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusNoContent, delResp.StatusCode)
}
