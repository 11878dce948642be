// Package healthmonitor periodically probes every configured shard and
// exposes a snapshot of which ones are currently available.
//
// # Overview
//
// ShardHealthMonitor polls each shard's /api/v1/storage/health endpoint on a fixed
// interval using a single pooled HTTP client. A shard is "available" only
// if its most recent probe succeeded AND that probe happened within the
// freshness window — so a monitor that stops ticking (a crash, a stuck
// goroutine) eventually makes every shard look unavailable rather than
// serving a stale healthy snapshot forever.
//
// # Thread Safety
//
// Health records are kept in a concurrent map; IsShardAvailable and
// Snapshot are safe to call from any goroutine while the monitor's
// background loop is running.
package healthmonitor
