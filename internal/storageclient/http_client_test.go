package storageclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/vecdb/internal/vectortypes"
	"github.com/dreamware/vecdb/internal/wire"
)

func TestHTTPClientPutVector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/v1/storage/vectors/images", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int64{"id": 42})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	id, err := c.PutVector(t.Context(), "images", vectortypes.VectorEntry{ID: 42})
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestHTTPClientGetVectorNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	_, ok, err := c.GetVector(t.Context(), "images", 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHTTPClientSearchDecodesWireFormat(t *testing.T) {
	results := []vectortypes.SearchResult{
		{Distance: 1, Similarity: 0.5, Entry: vectortypes.VectorEntry{ID: 7, Embedding: []float32{1, 2}, DatabaseID: "db"}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/storage/search", r.URL.Path)
		w.Write(wire.EncodeSearchResults(results))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	got, err := c.Search(t.Context(), SearchQuery{DatabaseID: "db", Query: []float32{0, 0}, K: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(7), got[0].Entry.ID)
}

func TestHTTPClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	require.NoError(t, c.Health(t.Context()))
}

func TestHTTPClientScanRangeEncodesQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "images", r.URL.Query().Get("db"))
		require.Equal(t, "10", r.URL.Query().Get("from"))
		require.Equal(t, "9223372036854775807", r.URL.Query().Get("to"))
		json.NewEncoder(w).Encode([]vectortypes.VectorEntry{{ID: 11}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, nil)
	got, err := c.ScanRange(t.Context(), "images", 10, 1<<63-1, 500)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
