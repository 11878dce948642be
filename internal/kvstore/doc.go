// Package kvstore defines the per-shard key-value storage contract and two
// implementations: an in-memory store for tests and a Badger-backed store
// for persistent deployments.
//
// # Overview
//
// KeyValueStorage holds the vectors and database metadata a storage node is
// responsible for. It is a thin persistence layer; similarity search lives
// in internal/vectorindex, built from the same entries this layer returns.
package kvstore
