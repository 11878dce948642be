// Package clusterconfig provides the ClusterConfigRepository contract the
// rest of vecdb depends on for the current shard topology, plus a
// file-backed implementation standing in for the external, ZooKeeper-shaped
// watcher the core design assumes.
//
// # Overview
//
// A repository serves the current ClusterConfig and notifies registered
// callbacks whenever it changes. The file-backed implementation reads a
// YAML document and republishes on every write, using fsnotify to watch the
// file the same way a production deployment would watch a ZooKeeper znode
// or an etcd key.
//
// # Thread Safety
//
// Repository is safe for concurrent use; GetClusterConfig never blocks on
// the watcher goroutine, since the current config is published through an
// atomic pointer exactly like ring.HashRing snapshots elsewhere in vecdb.
package clusterconfig
