// Package storageclient implements the coordinator's RPC surface against a
// storage shard: HTTP+JSON for vector and database operations, the binary
// wire codec (internal/wire) for search responses.
//
// # Overview
//
// StorageClient is a per-shard client carrying its own base URL and
// timeout, since the router and rebalancer both need to hold many such
// clients — one per shard — at once.
package storageclient
