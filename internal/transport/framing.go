// Package transport implements the two framed TCP connections a kRPC
// client holds: the RPC connection (request/reply under a mutex) and
// the STREAM connection (read-only after handshake, driven by a
// background reader). Framing on both is a protobuf varint byte-length
// prefix followed by the message body, the same shape the teacher's
// generated codec used for net/rpc, generalized from a fixed uvarint
// reader/writer pair to the kRPC message set.
package transport

import (
	"bufio"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// DefaultMaxFrameLength bounds a single framed message, guarding
// against unbounded buffer growth from a malformed or hostile length
// prefix.
const DefaultMaxFrameLength = 64 << 20 // 64 MiB

// writeFrame writes msg to w prefixed with its varint byte length.
func writeFrame(w io.Writer, msg []byte) error {
	var lenBuf [binaryMaxVarintLen]byte
	n := putUvarint(lenBuf[:], uint64(len(msg)))
	if _, err := w.Write(lenBuf[:n]); err != nil {
		return err
	}
	_, err := w.Write(msg)
	return err
}

// readFrame reads one varint-length-prefixed message from r, tolerating
// short reads across arbitrary chunk boundaries (bufio.Reader.ReadByte
// and io.ReadFull each internally loop until satisfied or erroring).
func readFrame(r *bufio.Reader, maxLen int) ([]byte, error) {
	size, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	if maxLen > 0 && size > uint64(maxLen) {
		return nil, fmt.Errorf("transport: frame length %d exceeds max %d", size, maxLen)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

const binaryMaxVarintLen = 10

// putUvarint/readUvarint reuse protowire's varint primitives (the same
// ones the schema codec uses) rather than encoding/binary's, so framing
// and message bodies share one varint implementation end to end.
func putUvarint(buf []byte, v uint64) int {
	b := protowire.AppendVarint(nil, v)
	return copy(buf, b)
}

func readUvarint(r *bufio.Reader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, fmt.Errorf("transport: varint overflow")
		}
	}
}
