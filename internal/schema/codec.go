// Package schema contains hand-authored Go bindings for the small set
// of protobuf messages kRPC exchanges on the wire (connection
// handshakes, requests/responses, procedure calls, and the composite
// value kinds used inside untagged Argument/ProcedureResult payloads).
//
// These are written against google.golang.org/protobuf/encoding/protowire
// rather than generated by protoc: the module this repository builds
// in does not run the protobuf compiler, and protowire is the same
// low-level primitive layer protoc-gen-go's own output calls into, so
// nothing about the wire format itself is approximated. Field numbers
// below match the kRPC .proto schema exactly.
package schema

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// message is implemented by every type in this package.
type message interface {
	Marshal() ([]byte, error)
	Unmarshal(buf []byte) error
}

func appendVarintField(buf []byte, num protowire.Number, v uint64) []byte {
	buf = protowire.AppendTag(buf, num, protowire.VarintType)
	return protowire.AppendVarint(buf, v)
}

func appendBytesField(buf []byte, num protowire.Number, v []byte) []byte {
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendBytes(buf, v)
}

func appendStringField(buf []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return buf
	}
	buf = protowire.AppendTag(buf, num, protowire.BytesType)
	return protowire.AppendString(buf, v)
}

func appendMessageField(buf []byte, num protowire.Number, m message) ([]byte, error) {
	b, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	return appendBytesField(buf, num, b), nil
}

// fieldVisitor is called once per top-level field encountered while
// unmarshaling a message. num/typ identify the field; raw is the
// remaining buffer positioned at the start of the field's value.
// visit returns the number of bytes of raw it consumed.
type fieldVisitor func(num protowire.Number, typ protowire.Type, raw []byte) (int, error)

// walkFields drives visit over every field in buf, in wire order,
// returning an error if the buffer is malformed.
func walkFields(buf []byte, visit fieldVisitor) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return fmt.Errorf("schema: malformed tag: %w", protowire.ParseError(n))
		}
		buf = buf[n:]

		consumed, err := visit(num, typ, buf)
		if err != nil {
			return err
		}
		if consumed < 0 || consumed > len(buf) {
			return fmt.Errorf("schema: field %d consumed out of range", num)
		}
		buf = buf[consumed:]
	}
	return nil
}

// consumeUnknown skips a field value of the given wire type, returning
// the number of bytes consumed. Used by Unmarshal implementations to
// tolerate fields from a newer schema version.
func consumeUnknown(typ protowire.Type, buf []byte) (int, error) {
	n := protowire.ConsumeFieldValue(0, typ, buf)
	if n < 0 {
		return 0, fmt.Errorf("schema: malformed field: %w", protowire.ParseError(n))
	}
	return n, nil
}
