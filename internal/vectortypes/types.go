package vectortypes

import "time"

// ShardStatus describes the lifecycle state of a shard as recorded in a
// ShardConfig. A shard transitions NEW -> ACTIVE exactly once, when the
// rebalancer finishes migrating the key range it has taken over.
type ShardStatus string

const (
	// ShardStatusNew marks a shard that has joined the ring and is already
	// the write owner of its key range, but has not finished receiving the
	// migrated primaries and replicas from its predecessor.
	ShardStatusNew ShardStatus = "NEW"

	// ShardStatusActive marks a fully operational shard: it accepts both
	// reads and writes and participates in fan-out search.
	ShardStatusActive ShardStatus = "ACTIVE"
)

// VectorEntry is the atomic unit of stored data: a single embedding, keyed
// by a 64-bit id, scoped to a database, and immutable once written.
//
// Example:
//
//	e := VectorEntry{
//	    ID:           42,
//	    Embedding:    []float32{0.1, 0.2, 0.3},
//	    DatabaseID:   "images",
//	    OriginalData: `{"path":"/img/42.png"}`,
//	    CreatedAt:    time.Now(),
//	}
type VectorEntry struct {
	CreatedAt    time.Time `json:"createdAt"`
	DatabaseID   string    `json:"databaseId"`
	OriginalData string    `json:"originalData"`
	Embedding    []float32 `json:"embedding"`
	ID           int64     `json:"id"`
}

// DatabaseInfo describes a named collection of vectors that all share the
// same embedding dimension, fixed at creation time.
type DatabaseInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// SearchResult pairs a VectorEntry with its distance and similarity against
// a query vector. Lists of SearchResult are always ordered by Distance
// ascending; ties are broken by the smaller VectorEntry.ID.
type SearchResult struct {
	Entry      VectorEntry `json:"entry"`
	Distance   float64     `json:"distance"`
	Similarity float64     `json:"similarity"`
}

// ShardConfig is the persistent, cluster-config-level description of a
// storage shard: its id, the base URL the coordinator dials to reach it, its
// position on the hash ring, and its lifecycle status.
type ShardConfig struct {
	ShardID string      `json:"shardId" yaml:"shardId"`
	BaseURL string      `json:"baseUrl" yaml:"baseUrl"`
	HashKey int64       `json:"hashKey" yaml:"hashKey"`
	Status  ShardStatus `json:"status" yaml:"status"`
}

// IsActiveForWrite reports whether the shard accepts writes: both NEW (it
// is already the authoritative write owner of its range the moment it joins
// the ring, per the rebalancer's "writes to the new owner are never
// migrated back" rule) and ACTIVE shards do.
func (c ShardConfig) IsActiveForWrite() bool {
	return c.Status == ShardStatusActive || c.Status == ShardStatusNew
}

// IsActiveForRead reports whether the shard should be included in read
// routing and fan-out search. Only fully ACTIVE shards qualify; a NEW shard
// may still be missing data the rebalancer hasn't migrated to it yet.
func (c ShardConfig) IsActiveForRead() bool {
	return c.Status == ShardStatusActive
}

// ShardInfo is the runtime view of a ShardConfig as seen by the hash ring:
// the same identity and routing data, exposed through an independent type
// so ring/ownership code never has to reach back into the config snapshot
// it was built from.
type ShardInfo struct {
	ShardID string
	BaseURL string
	HashKey int64
	Status  ShardStatus
}

// IsActiveForWrite mirrors ShardConfig.IsActiveForWrite.
func (s ShardInfo) IsActiveForWrite() bool {
	return s.Status == ShardStatusActive || s.Status == ShardStatusNew
}

// IsActiveForRead mirrors ShardConfig.IsActiveForRead.
func (s ShardInfo) IsActiveForRead() bool {
	return s.Status == ShardStatusActive
}

// ShardInfoFromConfig builds the runtime ShardInfo view of a persisted ShardConfig.
func ShardInfoFromConfig(c ShardConfig) ShardInfo {
	return ShardInfo{
		ShardID: c.ShardID,
		BaseURL: c.BaseURL,
		HashKey: c.HashKey,
		Status:  c.Status,
	}
}

// ClusterConfig is an immutable, ordered list of ShardConfig entries. The
// set of distinct HashKey values must have the same size as the list — ring
// collisions are a configuration error the repository must reject before
// publishing.
type ClusterConfig struct {
	Shards []ShardConfig `json:"shards" yaml:"shards"`
}

// Validate checks the no-ring-collisions invariant from the data model: the
// set of distinct hash keys must be exactly as large as the shard list.
func (c ClusterConfig) Validate() error {
	seen := make(map[int64]struct{}, len(c.Shards))
	for _, s := range c.Shards {
		if s.ShardID == "" {
			return ErrInvalidShardConfig{Reason: "shardId must not be empty"}
		}
		if s.BaseURL == "" {
			return ErrInvalidShardConfig{Reason: "baseUrl must not be empty"}
		}
		if _, dup := seen[s.HashKey]; dup {
			return ErrInvalidShardConfig{Reason: "duplicate hashKey causes ring collision"}
		}
		seen[s.HashKey] = struct{}{}
	}
	return nil
}

// ErrInvalidShardConfig is returned by ClusterConfig.Validate when a
// candidate configuration would violate the ring's no-collision invariant
// or carries a structurally invalid ShardConfig.
type ErrInvalidShardConfig struct {
	Reason string
}

func (e ErrInvalidShardConfig) Error() string {
	return "invalid cluster config: " + e.Reason
}
