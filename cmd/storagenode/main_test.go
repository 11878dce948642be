package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/vecdb/internal/kvstore"
	"github.com/dreamware/vecdb/internal/vectorindex"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

func TestParseMetric(t *testing.T) {
	cases := map[string]vectorindex.Metric{
		"euclidean": vectorindex.MetricEuclidean,
		"cosine":    vectorindex.MetricCosine,
		"dot":       vectorindex.MetricDotProduct,
	}
	for name, want := range cases {
		got, err := parseMetric(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseMetric("manhattan")
	assert.Error(t, err)
}

func TestOpenStoresDefaultsToMemory(t *testing.T) {
	primary, replica, closeFn := openStores("", nil)
	defer closeFn()

	_, ok := primary.(*kvstore.MemoryStore)
	assert.True(t, ok)
	_, ok = replica.(*kvstore.MemoryStore)
	assert.True(t, ok)
	assert.NotSame(t, primary, replica)
}

func TestRebuildIndexSeedsFromPersistedVectors(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.PutDatabaseInfo(vectortypes.DatabaseInfo{ID: "images", Name: "images", Dimension: 2}))
	require.NoError(t, store.PutVector("images", vectortypes.VectorEntry{ID: 1, Embedding: []float32{1, 0}}))
	require.NoError(t, store.PutVector("images", vectortypes.VectorEntry{ID: 2, Embedding: []float32{0, 1}}))

	index := vectorindex.NewFlatIndex(vectorindex.MetricEuclidean)
	require.NoError(t, rebuildIndex(store, index))

	results, err := index.Search("images", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].Entry.ID)
}
