package storageclient

import (
	"context"

	"github.com/dreamware/vecdb/internal/vectortypes"
)

// SearchQuery is the request body for a shard's search endpoint.
type SearchQuery struct {
	DatabaseID string    `json:"databaseId"`
	Query      []float32 `json:"query"`
	K          int       `json:"k"`
	// SourceShardID, when set, asks the shard to search its replica
	// partition sourced from SourceShardID rather than its primary data.
	SourceShardID string `json:"sourceShardId,omitempty"`
}

// StorageClient is the coordinator-side RPC surface for one storage shard.
type StorageClient interface {
	// PutVector stores entry in databaseId on this shard, returning the
	// assigned id.
	PutVector(ctx context.Context, databaseID string, entry vectortypes.VectorEntry) (int64, error)

	// GetVector retrieves entry by id. ok is false on a 404.
	GetVector(ctx context.Context, databaseID string, id int64) (entry vectortypes.VectorEntry, ok bool, err error)

	// DeleteVector removes entry by id. ok is false on a 404.
	DeleteVector(ctx context.Context, databaseID string, id int64) (ok bool, err error)

	// Search runs a top-k query, optionally against a replica partition
	// when query.SourceShardID is set.
	Search(ctx context.Context, query SearchQuery) ([]vectortypes.SearchResult, error)

	// CreateDatabase registers a new database.
	CreateDatabase(ctx context.Context, id, name string, dimension int) (vectortypes.DatabaseInfo, error)

	// DeleteDatabase removes a database and its vectors. ok is false on a 404.
	DeleteDatabase(ctx context.Context, databaseID string) (ok bool, err error)

	// RebuildDatabase rebuilds the shard's index for databaseId.
	RebuildDatabase(ctx context.Context, databaseID string) error

	// Health probes the shard's liveness endpoint.
	Health(ctx context.Context) error

	// ScanRange returns up to limit vectors with id in (fromID, toID],
	// ordered by id ascending.
	ScanRange(ctx context.Context, databaseID string, fromID, toID int64, limit int) ([]vectortypes.VectorEntry, error)

	// PutVectorReplica stores entry as a replica sourced from sourceShardID.
	PutVectorReplica(ctx context.Context, databaseID string, entry vectortypes.VectorEntry, sourceShardID string) error

	// GetVectorReplica retrieves a replica entry sourced from sourceShardID.
	GetVectorReplica(ctx context.Context, databaseID string, id int64, sourceShardID string) (entry vectortypes.VectorEntry, ok bool, err error)

	// DeleteVectorReplica removes a replica entry sourced from sourceShardID.
	DeleteVectorReplica(ctx context.Context, databaseID string, id int64, sourceShardID string) error
}
