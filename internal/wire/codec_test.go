package wire

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

func TestEncodeSearchResultsMatchesKnownByteLayout(t *testing.T) {
	results := []vectortypes.SearchResult{
		{
			Distance:   1.0,
			Similarity: 0.5,
			Entry: vectortypes.VectorEntry{
				ID:           7,
				CreatedAt:    time.UnixMilli(0).UTC(),
				Embedding:    []float32{1.0, 2.0},
				DatabaseID:   "db",
				OriginalData: "x",
			},
		},
	}

	got := EncodeSearchResults(results)

	want := mustHex(t, strings.Join([]string{
		"01",                 // count = 1
		"3FF0000000000000",   // distance 1.0, f64 LE bytes shown big-endian-ordered for readability
		"3FE0000000000000",   // similarity 0.5
		"07",                 // id = 7
		"0000000000000000",   // createdAt = 0
		"02",                 // dimension = 2
		"3F800000", "40000000", // embedding[0]=1.0, embedding[1]=2.0
		"02", "6462", // databaseId: len=2, "db"
		"01", "78",   // originalData: len=1, "x"
	}, ""))

	// The fixed-width fields are little-endian on the wire; the literal
	// above lists the conceptual big-endian value for readability, so
	// byte-swap every 8-byte and 4-byte fixed field before comparing.
	want = reverseFixedFields(want)

	assert.Equal(t, want, got)
}

// reverseFixedFields flips the byte order of the f64/f64/i64 and f32/f32
// fields within the single-result literal above, leaving the leading count
// varint, the id varint, the dimension varint, and the two length-prefixed
// strings untouched.
func reverseFixedFields(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	reverse := func(start, n int) {
		for i, j := start, start+n-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	reverse(1, 8)  // distance
	reverse(9, 8)  // similarity
	reverse(18, 8) // createdAt
	reverse(27, 4) // embedding[0]
	reverse(31, 4) // embedding[1]
	return out
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	results := []vectortypes.SearchResult{
		{
			Distance:   3.25,
			Similarity: 0.125,
			Entry: vectortypes.VectorEntry{
				ID:           1 << 40,
				CreatedAt:    time.UnixMilli(1_700_000_000_123).UTC(),
				Embedding:    []float32{0.1, -2.5, 3.0},
				DatabaseID:   "images",
				OriginalData: `{"path":"/img/1.png"}`,
			},
		},
		{
			Distance:   0,
			Similarity: 1,
			Entry: vectortypes.VectorEntry{
				ID:           0,
				CreatedAt:    time.UnixMilli(0).UTC(),
				Embedding:    nil,
				DatabaseID:   "",
				OriginalData: "",
			},
		},
	}

	encoded := EncodeSearchResults(results)
	decoded, err := DecodeSearchResults(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(results))

	for i := range results {
		assert.Equal(t, results[i].Distance, decoded[i].Distance)
		assert.Equal(t, results[i].Similarity, decoded[i].Similarity)
		assert.Equal(t, results[i].Entry.ID, decoded[i].Entry.ID)
		assert.True(t, results[i].Entry.CreatedAt.Equal(decoded[i].Entry.CreatedAt))
		assert.Equal(t, results[i].Entry.Embedding, decoded[i].Entry.Embedding)
		assert.Equal(t, results[i].Entry.DatabaseID, decoded[i].Entry.DatabaseID)
		assert.Equal(t, results[i].Entry.OriginalData, decoded[i].Entry.OriginalData)
	}
}

func TestEncodeEmptyResultsStillWritesCountVarint(t *testing.T) {
	got := EncodeSearchResults(nil)
	assert.Equal(t, []byte{0x00}, got)

	decoded, err := DecodeSearchResults(got)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeRejectsTruncatedBuffer(t *testing.T) {
	full := EncodeSearchResults([]vectortypes.SearchResult{{
		Entry: vectortypes.VectorEntry{ID: 1, Embedding: []float32{1, 2}},
	}})
	truncated := full[:len(full)-1]

	_, err := DecodeSearchResults(truncated)
	require.Error(t, err)
	var protoErr vdberrors.ProtocolError
	assert.True(t, errors.As(err, &protoErr))
}

func TestDecodeRejectsVarintShiftOverflow(t *testing.T) {
	// 10 bytes, every one with the continuation bit set: never terminates
	// within the maximum 10-byte encoding.
	malformed := bytes.Repeat([]byte{0xFF}, 10)

	_, err := DecodeSearchResults(malformed)
	require.Error(t, err)
	var protoErr vdberrors.ProtocolError
	assert.True(t, errors.As(err, &protoErr))
}

func TestUvarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 32, ^uint64(0)}
	for _, v := range values {
		buf := putUvarint(nil, v)
		got, n, err := readUvarint(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}
