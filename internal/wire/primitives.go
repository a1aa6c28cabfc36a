// Package wire implements the untagged primitive encoding used inside
// Argument.value and ProcedureResult.value: a bare protobuf wire value
// written without its field tag/header. It is built directly on
// google.golang.org/protobuf/encoding/protowire, the same varint/
// fixed32/fixed64/length-delimited primitives a protoc-gen-go-generated
// message uses internally, since this module does not run the protobuf
// compiler to produce real generated bindings.
package wire

import (
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// EncodeBool appends the untagged varint encoding of b.
func EncodeBool(buf []byte, b bool) []byte {
	v := uint64(0)
	if b {
		v = 1
	}
	return protowire.AppendVarint(buf, v)
}

// DecodeBool consumes an untagged varint bool from buf, returning the
// value and the number of bytes consumed.
func DecodeBool(buf []byte) (bool, int, error) {
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return false, 0, errTruncated
	}
	return v != 0, n, nil
}

// EncodeInt32 appends the untagged zig-zag varint encoding of v.
func EncodeInt32(buf []byte, v int32) []byte {
	return protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(v)))
}

// DecodeInt32 consumes an untagged zig-zag varint int32 from buf.
func DecodeInt32(buf []byte) (int32, int, error) {
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return int32(protowire.DecodeZigZag(v)), n, nil
}

// EncodeInt64 appends the untagged zig-zag varint encoding of v.
func EncodeInt64(buf []byte, v int64) []byte {
	return protowire.AppendVarint(buf, protowire.EncodeZigZag(v))
}

// DecodeInt64 consumes an untagged zig-zag varint int64 from buf.
func DecodeInt64(buf []byte) (int64, int, error) {
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return protowire.DecodeZigZag(v), n, nil
}

// EncodeUint32 appends the untagged varint encoding of v.
func EncodeUint32(buf []byte, v uint32) []byte {
	return protowire.AppendVarint(buf, uint64(v))
}

// DecodeUint32 consumes an untagged varint uint32 from buf.
func DecodeUint32(buf []byte) (uint32, int, error) {
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return uint32(v), n, nil
}

// EncodeUint64 appends the untagged varint encoding of v.
func EncodeUint64(buf []byte, v uint64) []byte {
	return protowire.AppendVarint(buf, v)
}

// DecodeUint64 consumes an untagged varint uint64 from buf.
func DecodeUint64(buf []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return v, n, nil
}

// EncodeFloat32 appends the untagged 32-bit little-endian IEEE-754
// encoding of v.
func EncodeFloat32(buf []byte, v float32) []byte {
	return protowire.AppendFixed32(buf, math.Float32bits(v))
}

// DecodeFloat32 consumes an untagged fixed32 float from buf.
func DecodeFloat32(buf []byte) (float32, int, error) {
	v, n := protowire.ConsumeFixed32(buf)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return math.Float32frombits(v), n, nil
}

// EncodeFloat64 appends the untagged 64-bit little-endian IEEE-754
// encoding of v.
func EncodeFloat64(buf []byte, v float64) []byte {
	return protowire.AppendFixed64(buf, math.Float64bits(v))
}

// DecodeFloat64 consumes an untagged fixed64 double from buf.
func DecodeFloat64(buf []byte) (float64, int, error) {
	v, n := protowire.ConsumeFixed64(buf)
	if n < 0 {
		return 0, 0, errTruncated
	}
	return math.Float64frombits(v), n, nil
}

// EncodeBytes appends the untagged length-prefixed encoding of b.
func EncodeBytes(buf []byte, b []byte) []byte {
	return protowire.AppendBytes(buf, b)
}

// DecodeBytes consumes an untagged length-prefixed byte string from buf.
// The returned slice aliases buf; callers that retain it past the next
// mutation of buf should copy it.
func DecodeBytes(buf []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(buf)
	if n < 0 {
		return nil, 0, errTruncated
	}
	return v, n, nil
}

// EncodeString appends the untagged length-prefixed UTF-8 encoding of
// s.
func EncodeString(buf []byte, s string) []byte {
	return protowire.AppendString(buf, s)
}

// DecodeString consumes an untagged length-prefixed UTF-8 string from
// buf.
func DecodeString(buf []byte) (string, int, error) {
	v, n := protowire.ConsumeBytes(buf)
	if n < 0 {
		return "", 0, errTruncated
	}
	if !utf8.Valid(v) {
		return "", 0, errInvalidUTF8
	}
	return string(v), n, nil
}
