// Package wire implements the binary codec used to stream SearchResult
// lists between the coordinator and storage nodes.
//
// # Overview
//
// The wire format favors a compact, self-describing encoding over JSON for
// search responses, since a single fan-out query can produce thousands of
// results across shards: a varint count, then per result a pair of
// little-endian float64 scores, a varint id, a little-endian int64
// timestamp, a varint-prefixed float32 embedding, and two varint-prefixed
// UTF-8 strings.
//
// # Protocol errors
//
// Decode rejects three malformed-input conditions explicitly: a varint
// whose continuation bits imply a shift of 64 or more, a buffer that ends
// before a field's declared length is satisfied, and a negative embedding
// dimension. All three surface as vdberrors.ProtocolError.
package wire
