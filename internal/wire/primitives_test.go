package wire

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		buf := EncodeBool(nil, v)
		got, n, err := DecodeBool(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestInt32RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, -2, math.MaxInt32, math.MinInt32} {
		buf := EncodeInt32(nil, v)
		got, n, err := DecodeInt32(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestInt64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, -2, math.MaxInt64, math.MinInt64} {
		buf := EncodeInt64(nil, v)
		got, n, err := DecodeInt64(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestUint32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, math.MaxUint32} {
		buf := EncodeUint32(nil, v)
		got, n, err := DecodeUint32(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, math.MaxUint64} {
		buf := EncodeUint64(nil, v)
		got, n, err := DecodeUint64(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	for _, v := range []float32{0, 1.5, -1.5, math.MaxFloat32} {
		buf := EncodeFloat32(nil, v)
		got, n, err := DecodeFloat32(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1.5, -1.5, math.MaxFloat64} {
		buf := EncodeFloat64(nil, v)
		got, n, err := DecodeFloat64(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	for _, v := range [][]byte{nil, {}, {0x00, 0x01, 0xff}} {
		buf := EncodeBytes(nil, v)
		got, n, err := DecodeBytes(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.True(t, bytes.Equal(v, got), "got %x, want %x", got, v)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, v := range []string{"", "hello", "日本語"} {
		buf := EncodeString(nil, v)
		got, n, err := DecodeString(buf)
		require.NoError(t, err)
		assert.Equal(t, len(buf), n)
		assert.Equal(t, v, got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	// A varint continuation byte with nothing following is truncated.
	_, _, err := DecodeUint32([]byte{0x80})
	require.Error(t, err)
	assert.True(t, IsTruncated(err))

	_, _, err = DecodeFloat32([]byte{0x01, 0x02})
	require.Error(t, err)
	assert.True(t, IsTruncated(err))

	_, _, err = DecodeBytes([]byte{0x05, 'a', 'b'})
	require.Error(t, err)
	assert.True(t, IsTruncated(err))
}

func TestDecodeStringInvalidUTF8(t *testing.T) {
	buf := EncodeBytes(nil, []byte{0xff, 0xfe})
	_, _, err := DecodeString(buf)
	require.Error(t, err)
	assert.True(t, IsInvalidUTF8(err))
}
