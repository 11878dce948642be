package vectorindex

import "github.com/dreamware/vecdb/internal/vectortypes"

// Metric selects the distance/similarity function a VectorIndex uses.
type Metric int

const (
	// MetricEuclidean ranks by Euclidean distance, ascending.
	MetricEuclidean Metric = iota
	// MetricCosine ranks by cosine distance (1 - cosine similarity), ascending.
	MetricCosine
	// MetricDotProduct ranks by negative dot product, ascending (larger dot
	// product is a closer match).
	MetricDotProduct
)

// VectorIndex is the per-database nearest-neighbor search contract that a
// storage node's vector layer must satisfy. Its internals (HNSW/IVF/LSH are
// all valid implementations) are out of scope for vecdb's core coordination
// design, but a concrete one is required to exercise that layer end to end.
type VectorIndex interface {
	// Build prepares the index to accept Add/Search calls for db. Safe to
	// call more than once; a rebuild discards any index-internal state
	// derived from previously added vectors (the vectors themselves, held
	// by the key-value store, are unaffected).
	Build(db string) error

	// Add inserts or updates entry's embedding in db's index.
	Add(db string, entry vectortypes.VectorEntry) error

	// Remove deletes vectorID's embedding from db's index. Reports whether
	// anything was removed.
	Remove(db string, vectorID int64) (bool, error)

	// Search returns the k nearest entries to query, ordered by distance
	// ascending, ties broken by the smaller VectorEntry.ID.
	Search(db string, query []float32, k int) ([]vectortypes.SearchResult, error)

	// Save persists db's index state to path.
	Save(db, path string) error

	// Load restores db's index state from path.
	Load(db, path string) error

	// Size returns the number of vectors currently indexed for db.
	Size(db string) (int, error)

	// Clear removes db's index entirely.
	Clear(db string) error

	// ClearAll removes every database's index.
	ClearAll() error

	// IsBuilt reports whether Build has been called for db since the last
	// Clear/ClearAll.
	IsBuilt(db string) bool

	// SetDimension fixes the embedding dimension new entries must match.
	SetDimension(dimension int)
}
