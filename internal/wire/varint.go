package wire

import "github.com/dreamware/vecdb/internal/vdberrors"

// maxVarintBytes bounds a LEB128-encoded uint64 at 10 bytes, the point at
// which a 7-bits-per-byte encoding would need to shift past bit 63.
const maxVarintBytes = 10

// putUvarint appends the LEB128 encoding of v to buf and returns the
// extended slice. The encoder always writes at least one byte, so a count
// of zero is still represented explicitly.
func putUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// readUvarint decodes a LEB128 value from the front of buf, returning the
// value, the number of bytes consumed, and an error.
//
// It rejects two malformed-input conditions: a continuation run longer than
// maxVarintBytes (the shift would reach or exceed 64 bits), and a buffer
// that ends before a terminating byte (the high bit clear) is found.
func readUvarint(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint

	for i := 0; i < maxVarintBytes; i++ {
		if i >= len(buf) {
			return 0, 0, vdberrors.ProtocolError{Reason: "truncated varint"}
		}
		b := buf[i]
		if shift >= 64 {
			return 0, 0, vdberrors.ProtocolError{Reason: "varint shift overflow"}
		}
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, vdberrors.ProtocolError{Reason: "varint exceeds maximum length"}
}
