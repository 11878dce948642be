package vdberrors

import "fmt"

// RingEmptyError is returned when a hash ring operation is attempted
// against a ring with no configured shards.
type RingEmptyError struct{}

func (RingEmptyError) Error() string { return "hash ring has no shards" }

// ErrRingEmpty is the sentinel value returned by HashRing operations on an
// empty ring; compare with errors.Is.
var ErrRingEmpty = RingEmptyError{}

// ShardUnavailableError is returned when a request's target shard (and, for
// reads, its replica) cannot be reached.
type ShardUnavailableError struct {
	ShardID string
}

func (e ShardUnavailableError) Error() string {
	return fmt.Sprintf("shard %s is unavailable", e.ShardID)
}

// DimensionMismatchError is returned when a vector's embedding length does
// not match its database's fixed dimension.
type DimensionMismatchError struct {
	DatabaseID string
	Want, Got  int
}

func (e DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch for database %s: want %d, got %d", e.DatabaseID, e.Want, e.Got)
}

// UnknownDatabaseError is returned when an operation references a database
// id that is not registered.
type UnknownDatabaseError struct {
	DatabaseID string
}

func (e UnknownDatabaseError) Error() string {
	return fmt.Sprintf("unknown database %q", e.DatabaseID)
}

// NotFoundError is returned when a vector or database lookup finds nothing,
// distinct from UnknownDatabaseError because the database itself may be
// perfectly valid.
type NotFoundError struct {
	Kind string // "vector" or "database"
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// ProtocolError is returned by the wire codec when a frame is malformed:
// varint overflow, truncation, or a negative implied length.
type ProtocolError struct {
	Reason string
}

func (e ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// UpstreamFailureError wraps a non-retriable error returned by a shard.
type UpstreamFailureError struct {
	ShardID string
	Err     error
}

func (e UpstreamFailureError) Error() string {
	return fmt.Sprintf("upstream failure from shard %s: %v", e.ShardID, e.Err)
}

func (e UpstreamFailureError) Unwrap() error { return e.Err }

// InvalidArgumentError is returned for malformed caller input: blank ids,
// non-positive dimensions, or nil payloads.
type InvalidArgumentError struct {
	Reason string
}

func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}
