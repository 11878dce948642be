package wire

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/dreamware/vecdb/internal/vdberrors"
	"github.com/dreamware/vecdb/internal/vectortypes"
)

// EncodeSearchResults writes results to the binary stream format: a varint
// count followed by each result's fixed fields and variable-length strings.
// The count is always written explicitly, even when results is empty.
func EncodeSearchResults(results []vectortypes.SearchResult) []byte {
	buf := make([]byte, 0, 64*len(results)+1)
	buf = putUvarint(buf, uint64(len(results)))

	for _, r := range results {
		buf = appendFloat64(buf, r.Distance)
		buf = appendFloat64(buf, r.Similarity)
		buf = putUvarint(buf, uint64(r.Entry.ID))
		buf = appendInt64(buf, r.Entry.CreatedAt.UnixMilli())
		buf = putUvarint(buf, uint64(len(r.Entry.Embedding)))
		for _, f := range r.Entry.Embedding {
			buf = appendFloat32(buf, f)
		}
		buf = appendString(buf, r.Entry.DatabaseID)
		buf = appendString(buf, r.Entry.OriginalData)
	}
	return buf
}

// DecodeSearchResults parses the binary stream format produced by
// EncodeSearchResults, rejecting malformed input with vdberrors.ProtocolError:
// varints with a shift overflow, truncated buffers, and negative dimensions.
func DecodeSearchResults(data []byte) ([]vectortypes.SearchResult, error) {
	d := &decoder{buf: data}

	count, err := d.uvarint()
	if err != nil {
		return nil, err
	}

	results := make([]vectortypes.SearchResult, 0, count)
	for i := uint64(0); i < count; i++ {
		distance, err := d.float64()
		if err != nil {
			return nil, err
		}
		similarity, err := d.float64()
		if err != nil {
			return nil, err
		}
		id, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		createdAtMillis, err := d.int64()
		if err != nil {
			return nil, err
		}
		dimension, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		if int64(dimension) < 0 {
			return nil, vdberrors.ProtocolError{Reason: "negative embedding dimension"}
		}

		embedding := make([]float32, dimension)
		for j := range embedding {
			embedding[j], err = d.float32()
			if err != nil {
				return nil, err
			}
		}

		databaseID, err := d.string()
		if err != nil {
			return nil, err
		}
		originalData, err := d.string()
		if err != nil {
			return nil, err
		}

		results = append(results, vectortypes.SearchResult{
			Distance:   distance,
			Similarity: similarity,
			Entry: vectortypes.VectorEntry{
				ID:           int64(id),
				CreatedAt:    time.UnixMilli(createdAtMillis).UTC(),
				Embedding:    embedding,
				DatabaseID:   databaseID,
				OriginalData: originalData,
			},
		})
	}
	return results, nil
}

// decoder walks data front-to-back, consuming it as each field is read.
type decoder struct {
	buf []byte
}

func (d *decoder) uvarint() (uint64, error) {
	v, n, err := readUvarint(d.buf)
	if err != nil {
		return 0, err
	}
	d.buf = d.buf[n:]
	return v, nil
}

func (d *decoder) fixed(n int) ([]byte, error) {
	if len(d.buf) < n {
		return nil, vdberrors.ProtocolError{Reason: "truncated fixed-width field"}
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b, nil
}

func (d *decoder) float64() (float64, error) {
	b, err := d.fixed(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

func (d *decoder) float32() (float32, error) {
	b, err := d.fixed(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (d *decoder) int64() (int64, error) {
	b, err := d.fixed(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (d *decoder) string() (string, error) {
	n, err := d.uvarint()
	if err != nil {
		return "", err
	}
	b, err := d.fixed(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func appendFloat64(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}

func appendFloat32(buf []byte, v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(buf, tmp[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = putUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
