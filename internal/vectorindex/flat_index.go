package vectorindex

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

// FlatIndex is a brute-force VectorIndex: Search scores every stored vector
// against the query and returns the top-k. It is the reference
// implementation used when no approximate index is configured.
type FlatIndex struct {
	metric    Metric
	dimension int

	mu sync.RWMutex
	db map[string]map[int64]vectortypes.VectorEntry
}

// NewFlatIndex returns a FlatIndex scoring with metric.
func NewFlatIndex(metric Metric) *FlatIndex {
	return &FlatIndex{
		metric: metric,
		db:     make(map[string]map[int64]vectortypes.VectorEntry),
	}
}

// SetDimension implements VectorIndex.
func (f *FlatIndex) SetDimension(dimension int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dimension = dimension
}

// Build implements VectorIndex.
func (f *FlatIndex) Build(db string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.db[db] = make(map[int64]vectortypes.VectorEntry)
	return nil
}

// IsBuilt implements VectorIndex.
func (f *FlatIndex) IsBuilt(db string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.db[db]
	return ok
}

// Add implements VectorIndex.
func (f *FlatIndex) Add(db string, entry vectortypes.VectorEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dimension > 0 && len(entry.Embedding) != f.dimension {
		return vdberrors.DimensionMismatchError{DatabaseID: db, Want: f.dimension, Got: len(entry.Embedding)}
	}

	vectors, ok := f.db[db]
	if !ok {
		vectors = make(map[int64]vectortypes.VectorEntry)
		f.db[db] = vectors
	}
	vectors[entry.ID] = entry
	return nil
}

// Remove implements VectorIndex.
func (f *FlatIndex) Remove(db string, vectorID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vectors, ok := f.db[db]
	if !ok {
		return false, nil
	}
	if _, ok := vectors[vectorID]; !ok {
		return false, nil
	}
	delete(vectors, vectorID)
	return true, nil
}

// Search implements VectorIndex.
func (f *FlatIndex) Search(db string, query []float32, k int) ([]vectortypes.SearchResult, error) {
	if k <= 0 {
		return nil, vdberrors.InvalidArgumentError{Reason: "k must be positive"}
	}

	f.mu.RLock()
	vectors, ok := f.db[db]
	if !ok {
		f.mu.RUnlock()
		return nil, vdberrors.UnknownDatabaseError{DatabaseID: db}
	}
	candidates := make([]vectortypes.VectorEntry, 0, len(vectors))
	for _, e := range vectors {
		candidates = append(candidates, e)
	}
	f.mu.RUnlock()

	queryF64 := toFloat64(query)
	results := make([]vectortypes.SearchResult, 0, len(candidates))
	for _, e := range candidates {
		dist, sim := f.score(queryF64, toFloat64(e.Embedding))
		results = append(results, vectortypes.SearchResult{Entry: e, Distance: dist, Similarity: sim})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Entry.ID < results[j].Entry.ID
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// score returns (distance, similarity) for query against candidate under
// the index's configured metric. Distance is always ascending-is-closer.
func (f *FlatIndex) score(query, candidate []float64) (distance, similarity float64) {
	switch f.metric {
	case MetricCosine:
		dot := floats.Dot(query, candidate)
		qNorm := floats.Norm(query, 2)
		cNorm := floats.Norm(candidate, 2)
		if qNorm == 0 || cNorm == 0 {
			return 1, 0
		}
		cos := dot / (qNorm * cNorm)
		return 1 - cos, cos
	case MetricDotProduct:
		dot := floats.Dot(query, candidate)
		return -dot, dot
	default:
		dist := floats.Distance(query, candidate, 2)
		return dist, 1 / (1 + dist)
	}
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Size implements VectorIndex.
func (f *FlatIndex) Size(db string) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	vectors, ok := f.db[db]
	if !ok {
		return 0, vdberrors.UnknownDatabaseError{DatabaseID: db}
	}
	return len(vectors), nil
}

// Clear implements VectorIndex.
func (f *FlatIndex) Clear(db string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.db, db)
	return nil
}

// ClearAll implements VectorIndex.
func (f *FlatIndex) ClearAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.db = make(map[string]map[int64]vectortypes.VectorEntry)
	return nil
}

// flatIndexSnapshot is the on-disk shape written by Save/Load.
type flatIndexSnapshot struct {
	Entries []vectortypes.VectorEntry `json:"entries"`
}

// Save implements VectorIndex.
func (f *FlatIndex) Save(db, path string) error {
	f.mu.RLock()
	vectors, ok := f.db[db]
	snap := flatIndexSnapshot{Entries: make([]vectortypes.VectorEntry, 0, len(vectors))}
	for _, e := range vectors {
		snap.Entries = append(snap.Entries, e)
	}
	f.mu.RUnlock()
	if !ok {
		return vdberrors.UnknownDatabaseError{DatabaseID: db}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load implements VectorIndex.
func (f *FlatIndex) Load(db, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap flatIndexSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	vectors := make(map[int64]vectortypes.VectorEntry, len(snap.Entries))
	for _, e := range snap.Entries {
		vectors[e.ID] = e
	}
	f.db[db] = vectors
	return nil
}
