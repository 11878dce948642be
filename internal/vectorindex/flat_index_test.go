package vectorindex

import (
	"path/filepath"
	"testing"

	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

func entry(id int64, embedding ...float32) vectortypes.VectorEntry {
	return vectortypes.VectorEntry{ID: id, DatabaseID: "db", Embedding: embedding}
}

func TestFlatIndexSearchEuclideanOrdersByDistance(t *testing.T) {
	idx := NewFlatIndex(MetricEuclidean)
	if err := idx.Build("db"); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, e := range []vectortypes.VectorEntry{
		entry(1, 0, 0),
		entry(2, 1, 0),
		entry(3, 5, 5),
	} {
		if err := idx.Add("db", e); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	results, err := idx.Search("db", []float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Entry.ID != 1 || results[1].Entry.ID != 2 {
		t.Fatalf("Search() order = [%d, %d], want [1, 2]", results[0].Entry.ID, results[1].Entry.ID)
	}
}

func TestFlatIndexSearchUnknownDatabase(t *testing.T) {
	idx := NewFlatIndex(MetricEuclidean)
	if _, err := idx.Search("missing", []float32{1}, 1); err == nil {
		t.Fatal("Search() on unbuilt database should error")
	} else if _, ok := err.(vdberrors.UnknownDatabaseError); !ok {
		t.Fatalf("Search() error type = %T, want UnknownDatabaseError", err)
	}
}

func TestFlatIndexAddRejectsDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex(MetricEuclidean)
	idx.SetDimension(3)
	idx.Build("db")

	err := idx.Add("db", entry(1, 1, 2))
	if err == nil {
		t.Fatal("Add() with wrong dimension should error")
	}
	if _, ok := err.(vdberrors.DimensionMismatchError); !ok {
		t.Fatalf("Add() error type = %T, want DimensionMismatchError", err)
	}
}

func TestFlatIndexRemove(t *testing.T) {
	idx := NewFlatIndex(MetricEuclidean)
	idx.Build("db")
	idx.Add("db", entry(1, 1, 1))

	removed, err := idx.Remove("db", 1)
	if err != nil || !removed {
		t.Fatalf("Remove(1) = %v, %v, want true, nil", removed, err)
	}
	removed, err = idx.Remove("db", 1)
	if err != nil || removed {
		t.Fatalf("Remove(1) again = %v, %v, want false, nil", removed, err)
	}
}

func TestFlatIndexSaveLoadRoundTrip(t *testing.T) {
	idx := NewFlatIndex(MetricEuclidean)
	idx.Build("db")
	idx.Add("db", entry(1, 1, 2, 3))
	idx.Add("db", entry(2, 4, 5, 6))

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := idx.Save("db", path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	restored := NewFlatIndex(MetricEuclidean)
	if err := restored.Load("db", path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	size, err := restored.Size("db")
	if err != nil || size != 2 {
		t.Fatalf("Size() after Load = %d, %v, want 2, nil", size, err)
	}
}

func TestFlatIndexClearAndClearAll(t *testing.T) {
	idx := NewFlatIndex(MetricEuclidean)
	idx.Build("a")
	idx.Build("b")
	idx.Add("a", entry(1, 1))
	idx.Add("b", entry(1, 1))

	if err := idx.Clear("a"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if idx.IsBuilt("a") {
		t.Fatal("IsBuilt(a) should be false after Clear")
	}
	if !idx.IsBuilt("b") {
		t.Fatal("IsBuilt(b) should remain true")
	}

	if err := idx.ClearAll(); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if idx.IsBuilt("b") {
		t.Fatal("IsBuilt(b) should be false after ClearAll")
	}
}
