package kvstore

import "github.com/dreamware/vecdb/internal/vectortypes"

// KeyValueStorage is the per-shard persistence contract: vectors and
// database metadata, keyed for direct lookup and ordered range scans.
//
// All implementations must guarantee thread-safety for concurrent calls and
// must not return a key-value pair that was only ever partially written.
type KeyValueStorage interface {
	// PutVector stores entry under (databaseId, id), overwriting any
	// existing value — vectors are immutable once written in practice, but
	// the store itself does not enforce that; callers own the invariant.
	PutVector(databaseID string, entry vectortypes.VectorEntry) error

	// GetVector returns the entry stored at (databaseId, id). ok is false
	// if no such entry exists.
	GetVector(databaseID string, id int64) (entry vectortypes.VectorEntry, ok bool, err error)

	// DeleteVector removes the entry at (databaseId, id). Reports whether
	// anything was removed.
	DeleteVector(databaseID string, id int64) (bool, error)

	// GetAllVectors returns every vector stored for databaseId, in no
	// particular order.
	GetAllVectors(databaseID string) ([]vectortypes.VectorEntry, error)

	// ScanRange returns up to limit vectors for databaseId with id in
	// (fromID, toID], ordered by id ascending — exclusive of fromID so a
	// caller can resume a scan from the last id it saw without
	// re-delivering it.
	ScanRange(databaseID string, fromID, toID int64, limit int) ([]vectortypes.VectorEntry, error)

	// PutDatabaseInfo stores info, overwriting any existing entry with the
	// same id.
	PutDatabaseInfo(info vectortypes.DatabaseInfo) error

	// GetDatabaseInfo returns the DatabaseInfo for id. ok is false if it
	// does not exist.
	GetDatabaseInfo(id string) (info vectortypes.DatabaseInfo, ok bool, err error)

	// DeleteDatabaseInfo removes the DatabaseInfo for id. Reports whether
	// anything was removed.
	DeleteDatabaseInfo(id string) (bool, error)

	// GetAllDatabases returns every registered DatabaseInfo.
	GetAllDatabases() ([]vectortypes.DatabaseInfo, error)

	// Close releases any resources (file handles, background compaction)
	// held by the store.
	Close() error
}
