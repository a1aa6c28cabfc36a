package krpc

import (
	"fmt"

	"github.com/kladd/krpc-client/internal/schema"
	"github.com/kladd/krpc-client/internal/wire"
)

// This file is the Go analogue of the source's trait-based
// DecodeUntagged/EncodeUntagged/ToArgument/FromResponse dispatch (see
// SPEC_FULL.md's "Polymorphism over result types" note): one
// monomorphic encode/decode function pair per wire kind, composed by
// generated code instead of resolved by runtime trait lookup.

// The EncodeXArg/DecodeXArg functions are exported so that generated
// per-service code (a separate package, produced by cmd/krpcgen) can
// call them directly as the leaves of its composed call-builders and
// decoders.

func EncodeBoolArg(v bool) []byte       { return wire.EncodeBool(nil, v) }
func EncodeInt32Arg(v int32) []byte     { return wire.EncodeInt32(nil, v) }
func EncodeInt64Arg(v int64) []byte     { return wire.EncodeInt64(nil, v) }
func EncodeUint32Arg(v uint32) []byte   { return wire.EncodeUint32(nil, v) }
func EncodeUint64Arg(v uint64) []byte   { return wire.EncodeUint64(nil, v) }
func EncodeFloat32Arg(v float32) []byte { return wire.EncodeFloat32(nil, v) }
func EncodeFloat64Arg(v float64) []byte { return wire.EncodeFloat64(nil, v) }
func EncodeStringArg(v string) []byte   { return wire.EncodeString(nil, v) }
func EncodeBytesArg(v []byte) []byte    { return wire.EncodeBytes(nil, v) }

func DecodeBoolArg(b []byte) (bool, int, error)       { return wire.DecodeBool(b) }
func DecodeInt32Arg(b []byte) (int32, int, error)     { return wire.DecodeInt32(b) }
func DecodeInt64Arg(b []byte) (int64, int, error)     { return wire.DecodeInt64(b) }
func DecodeUint32Arg(b []byte) (uint32, int, error)   { return wire.DecodeUint32(b) }
func DecodeUint64Arg(b []byte) (uint64, int, error)   { return wire.DecodeUint64(b) }
func DecodeFloat32Arg(b []byte) (float32, int, error) { return wire.DecodeFloat32(b) }
func DecodeFloat64Arg(b []byte) (float64, int, error) { return wire.DecodeFloat64(b) }
func DecodeStringArg(b []byte) (string, int, error)   { return wire.DecodeString(b) }
func DecodeBytesArg(b []byte) ([]byte, int, error)    { return wire.DecodeBytes(b) }

// encodeProcedureCallArg encodes a ProcedureCall message for use as an
// argument value, e.g. AddStream's call parameter. Messages of this
// kind (PROCEDURE_CALL/EVENT/STREAM/SERVICES/STATUS in the catalogue's
// type-code vocabulary) are carried as their own protobuf encoding,
// not wrapped in a further untagged primitive.
func encodeProcedureCallArg(call schema.ProcedureCall) []byte {
	b, err := call.Marshal()
	if err != nil {
		// Marshal only fails if a nested Argument fails to marshal,
		// which cannot happen for values this package itself produced.
		panic(fmt.Sprintf("krpc: unreachable: encode ProcedureCall: %v", err))
	}
	return b
}

// protoMessage constrains EncodeMessageArg/DecodeMessageArg to *T
// values implementing the schema package's Marshal/Unmarshal pair, the
// pattern every message-typed catalogue value (STATUS, SERVICES,
// EVENT, STREAM, PROCEDURE_CALL) shares: its own protobuf encoding
// carried directly as the argument/result value, with no further
// untagged wrapper the way a primitive or composite gets.
type protoMessage[T any] interface {
	*T
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// EncodeMessageArg marshals a schema message value for use as an
// argument or return value.
func EncodeMessageArg[T any, PT protoMessage[T]](v T) []byte {
	b, err := PT(&v).Marshal()
	if err != nil {
		panic(fmt.Sprintf("krpc: unreachable: encode message: %v", err))
	}
	return b
}

// DecodeMessageArg unmarshals buf as a schema message value.
func DecodeMessageArg[T any, PT protoMessage[T]](buf []byte) (T, int, error) {
	var v T
	if err := PT(&v).Unmarshal(buf); err != nil {
		return v, 0, err
	}
	return v, len(buf), nil
}

// EncodeOptionalArg encodes a nullable non-class value: nil encodes as
// the absent-value representation (a zero-length value), matching
// what CallDecode already treats as "no value was returned"; a
// non-nil pointer encodes its pointee with enc.
func EncodeOptionalArg[T any](v *T, enc func(T) []byte) []byte {
	if v == nil {
		return nil
	}
	return enc(*v)
}

// DecodeOptionalArg decodes a nullable non-class value: an empty
// buffer (the absent-value representation) decodes to nil; otherwise
// dec decodes the pointee.
func DecodeOptionalArg[T any](buf []byte, dec func([]byte) (T, int, error)) (*T, int, error) {
	if len(buf) == 0 {
		return nil, 0, nil
	}
	v, n, err := dec(buf)
	if err != nil {
		return nil, 0, err
	}
	return &v, n, nil
}

// ClassHandle is the decoded form of a CLASS-typed value: an opaque
// server object id. A handle with ID 0 is null. Generated per-class
// wrapper types embed a ClassHandle and add typed methods.
type ClassHandle struct {
	ID uint64
}

// IsNull reports whether h is the null class handle (id 0).
func (h ClassHandle) IsNull() bool { return h.ID == 0 }

// EncodeClassArg encodes a class handle as its untagged object id,
// rejecting a null handle in a non-nullable position.
func EncodeClassArg(h ClassHandle, nullable bool) ([]byte, error) {
	if h.ID == 0 && !nullable {
		return nil, newEncodingError("encode class handle", fmt.Errorf("null handle in non-nullable position"))
	}
	return wire.EncodeUint64(nil, h.ID), nil
}

// EncodeClassHandle encodes h unconditionally, for positions (the
// method receiver bound from a "this" parameter) that are never null
// by construction.
func EncodeClassHandle(h ClassHandle) []byte {
	return wire.EncodeUint64(nil, h.ID)
}

// DecodeClassArg decodes an object id into a ClassHandle; generated
// code wraps the result in the per-class handle constructor.
func DecodeClassArg(b []byte) (ClassHandle, int, error) {
	id, n, err := wire.DecodeUint64(b)
	if err != nil {
		return ClassHandle{}, 0, err
	}
	return ClassHandle{ID: id}, n, nil
}

// Enum is implemented by generated enumeration types so the codec can
// validate decoded tags against the declared variant set without
// runtime reflection.
type Enum interface {
	~int32
}

// EncodeEnumArg encodes any generated enum type as its untagged i32
// tag.
func EncodeEnumArg[E Enum](v E) []byte {
	return wire.EncodeInt32(nil, int32(v))
}

// DecodeEnumArg decodes an i32 tag and validates it against valid, the
// enum type's declared variant set (built by generated code from the
// catalogue). An out-of-range tag is an encoding error, never silently
// mapped to the zero variant.
func DecodeEnumArg[E Enum](b []byte, valid map[E]bool) (E, int, error) {
	tag, n, err := wire.DecodeInt32(b)
	if err != nil {
		return 0, 0, err
	}
	e := E(tag)
	if !valid[e] {
		return 0, 0, fmt.Errorf("krpc: unknown enum tag %d", tag)
	}
	return e, n, nil
}

// Tuple2..Tuple4 give the "standard" tuple arities the spec calls out
// explicitly a single named Go type per arity, so a tuple-typed
// parameter or return value fits the same func([]byte) (T, int,
// error) decode shape every other kind uses. Higher arities follow
// the same pattern (one schema.Tuple item per component, encoded/
// decoded positionally) and are added on demand.

type Tuple2[A, B any] struct {
	V0 A
	V1 B
}

type Tuple3[A, B, C any] struct {
	V0 A
	V1 B
	V2 C
}

type Tuple4[A, B, C, D any] struct {
	V0 A
	V1 B
	V2 C
	V3 D
}

// EncodeTuple2Arg..EncodeTuple4Arg and DecodeTuple2Arg..DecodeTuple4Arg
// are exported so generated per-service packages (outside package
// krpc) can compose them as the leaves of a tuple-typed argument or
// return value.

func EncodeTuple2Arg[A, B any](t Tuple2[A, B], encA func(A) []byte, encB func(B) []byte) []byte {
	b, err := encodeTuple2(t.V0, t.V1, encA, encB)
	if err != nil {
		panic(fmt.Sprintf("krpc: unreachable: encode tuple2: %v", err))
	}
	return b
}

func DecodeTuple2Arg[A, B any](buf []byte, decA func([]byte) (A, int, error), decB func([]byte) (B, int, error)) (Tuple2[A, B], int, error) {
	a, b, err := decodeTuple2(buf, decA, decB)
	return Tuple2[A, B]{V0: a, V1: b}, len(buf), err
}

func EncodeTuple3Arg[A, B, C any](t Tuple3[A, B, C], encA func(A) []byte, encB func(B) []byte, encC func(C) []byte) []byte {
	b, err := encodeTuple3(t.V0, t.V1, t.V2, encA, encB, encC)
	if err != nil {
		panic(fmt.Sprintf("krpc: unreachable: encode tuple3: %v", err))
	}
	return b
}

func DecodeTuple3Arg[A, B, C any](buf []byte, decA func([]byte) (A, int, error), decB func([]byte) (B, int, error), decC func([]byte) (C, int, error)) (Tuple3[A, B, C], int, error) {
	a, b, c, err := decodeTuple3(buf, decA, decB, decC)
	return Tuple3[A, B, C]{V0: a, V1: b, V2: c}, len(buf), err
}

func EncodeTuple4Arg[A, B, C, D any](t Tuple4[A, B, C, D], encA func(A) []byte, encB func(B) []byte, encC func(C) []byte, encD func(D) []byte) []byte {
	b, err := encodeTuple4(t.V0, t.V1, t.V2, t.V3, encA, encB, encC, encD)
	if err != nil {
		panic(fmt.Sprintf("krpc: unreachable: encode tuple4: %v", err))
	}
	return b
}

func DecodeTuple4Arg[A, B, C, D any](buf []byte, decA func([]byte) (A, int, error), decB func([]byte) (B, int, error), decC func([]byte) (C, int, error), decD func([]byte) (D, int, error)) (Tuple4[A, B, C, D], int, error) {
	a, b, c, d, err := decodeTuple4(buf, decA, decB, decC, decD)
	return Tuple4[A, B, C, D]{V0: a, V1: b, V2: c, V3: d}, len(buf), err
}

// EncodeListArg/DecodeListArg, EncodeSetArg/DecodeSetArg, and
// EncodeDictArg/DecodeDictArg are the exported counterparts of
// encodeList/decodeList etc. below, for the same reason the tuple
// helpers above are exported: generated code lives in a separate
// package and cannot reach unexported identifiers in this one.

func EncodeListArg[T any](items []T, enc func(T) []byte) []byte {
	b, err := encodeList(items, enc)
	if err != nil {
		panic(fmt.Sprintf("krpc: unreachable: encode list: %v", err))
	}
	return b
}

func DecodeListArg[T any](buf []byte, dec func([]byte) (T, int, error)) ([]T, int, error) {
	v, err := decodeList(buf, dec)
	return v, len(buf), err
}

func EncodeSetArg[T comparable](items map[T]struct{}, enc func(T) []byte) []byte {
	b, err := encodeSet(items, enc)
	if err != nil {
		panic(fmt.Sprintf("krpc: unreachable: encode set: %v", err))
	}
	return b
}

func DecodeSetArg[T comparable](buf []byte, dec func([]byte) (T, int, error)) (map[T]struct{}, int, error) {
	v, err := decodeSet(buf, dec)
	return v, len(buf), err
}

func EncodeDictArg[K comparable, V any](m map[K]V, encK func(K) []byte, encV func(V) []byte) []byte {
	b, err := encodeDict(m, encK, encV)
	if err != nil {
		panic(fmt.Sprintf("krpc: unreachable: encode dict: %v", err))
	}
	return b
}

func DecodeDictArg[K comparable, V any](buf []byte, decK func([]byte) (K, int, error), decV func([]byte) (V, int, error)) (map[K]V, int, error) {
	v, err := decodeDict(buf, decK, decV)
	return v, len(buf), err
}

func encodeTuple2[A, B any](a A, b B, encA func(A) []byte, encB func(B) []byte) ([]byte, error) {
	t := schema.Tuple{Items: [][]byte{encA(a), encB(b)}}
	return t.Marshal()
}

func decodeTuple2[A, B any](buf []byte, decA func([]byte) (A, int, error), decB func([]byte) (B, int, error)) (A, B, error) {
	var a A
	var b B
	var t schema.Tuple
	if err := t.Unmarshal(buf); err != nil {
		return a, b, err
	}
	if len(t.Items) != 2 {
		return a, b, fmt.Errorf("krpc: tuple arity mismatch: want 2, got %d", len(t.Items))
	}
	var err error
	a, _, err = decA(t.Items[0])
	if err != nil {
		return a, b, err
	}
	b, _, err = decB(t.Items[1])
	if err != nil {
		return a, b, err
	}
	return a, b, nil
}

func encodeTuple3[A, B, C any](a A, b B, c C, encA func(A) []byte, encB func(B) []byte, encC func(C) []byte) ([]byte, error) {
	t := schema.Tuple{Items: [][]byte{encA(a), encB(b), encC(c)}}
	return t.Marshal()
}

func decodeTuple3[A, B, C any](buf []byte, decA func([]byte) (A, int, error), decB func([]byte) (B, int, error), decC func([]byte) (C, int, error)) (A, B, C, error) {
	var a A
	var b B
	var c C
	var t schema.Tuple
	if err := t.Unmarshal(buf); err != nil {
		return a, b, c, err
	}
	if len(t.Items) != 3 {
		return a, b, c, fmt.Errorf("krpc: tuple arity mismatch: want 3, got %d", len(t.Items))
	}
	var err error
	a, _, err = decA(t.Items[0])
	if err != nil {
		return a, b, c, err
	}
	b, _, err = decB(t.Items[1])
	if err != nil {
		return a, b, c, err
	}
	c, _, err = decC(t.Items[2])
	if err != nil {
		return a, b, c, err
	}
	return a, b, c, nil
}

func encodeTuple4[A, B, C, D any](a A, b B, c C, d D, encA func(A) []byte, encB func(B) []byte, encC func(C) []byte, encD func(D) []byte) ([]byte, error) {
	t := schema.Tuple{Items: [][]byte{encA(a), encB(b), encC(c), encD(d)}}
	return t.Marshal()
}

func decodeTuple4[A, B, C, D any](buf []byte, decA func([]byte) (A, int, error), decB func([]byte) (B, int, error), decC func([]byte) (C, int, error), decD func([]byte) (D, int, error)) (A, B, C, D, error) {
	var a A
	var b B
	var c C
	var d D
	var t schema.Tuple
	if err := t.Unmarshal(buf); err != nil {
		return a, b, c, d, err
	}
	if len(t.Items) != 4 {
		return a, b, c, d, fmt.Errorf("krpc: tuple arity mismatch: want 4, got %d", len(t.Items))
	}
	var err error
	a, _, err = decA(t.Items[0])
	if err != nil {
		return a, b, c, d, err
	}
	b, _, err = decB(t.Items[1])
	if err != nil {
		return a, b, c, d, err
	}
	c, _, err = decC(t.Items[2])
	if err != nil {
		return a, b, c, d, err
	}
	d, _, err = decD(t.Items[3])
	if err != nil {
		return a, b, c, d, err
	}
	return a, b, c, d, nil
}

// encodeList/decodeList handle LIST<T>: a homogeneous ordered sequence.
func encodeList[T any](items []T, enc func(T) []byte) ([]byte, error) {
	l := schema.List{Items: make([][]byte, len(items))}
	for i, v := range items {
		l.Items[i] = enc(v)
	}
	return l.Marshal()
}

func decodeList[T any](buf []byte, dec func([]byte) (T, int, error)) ([]T, error) {
	var l schema.List
	if err := l.Unmarshal(buf); err != nil {
		return nil, err
	}
	out := make([]T, len(l.Items))
	for i, raw := range l.Items {
		v, _, err := dec(raw)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// encodeSet/decodeSet handle SET<T>: an unordered collection of
// distinct items. Encoding and decoding both collapse duplicates by
// decoded value, since the wire Set message itself carries no
// identity beyond its raw item bytes.
func encodeSet[T comparable](items map[T]struct{}, enc func(T) []byte) ([]byte, error) {
	s := schema.Set{Items: make([][]byte, 0, len(items))}
	for v := range items {
		s.Items = append(s.Items, enc(v))
	}
	return s.Marshal()
}

func decodeSet[T comparable](buf []byte, dec func([]byte) (T, int, error)) (map[T]struct{}, error) {
	var s schema.Set
	if err := s.Unmarshal(buf); err != nil {
		return nil, err
	}
	out := make(map[T]struct{}, len(s.Items))
	for _, raw := range s.Items {
		v, _, err := dec(raw)
		if err != nil {
			return nil, err
		}
		out[v] = struct{}{}
	}
	return out, nil
}

// encodeDict/decodeDict handle DICTIONARY<K,V>. Duplicate keys on
// decode keep the last value seen, matching the wire-level Dictionary
// contract.
func encodeDict[K comparable, V any](m map[K]V, encK func(K) []byte, encV func(V) []byte) ([]byte, error) {
	d := schema.Dictionary{Entries: make([]schema.DictionaryEntry, 0, len(m))}
	for k, v := range m {
		d.Entries = append(d.Entries, schema.DictionaryEntry{Key: encK(k), Value: encV(v)})
	}
	return d.Marshal()
}

func decodeDict[K comparable, V any](buf []byte, decK func([]byte) (K, int, error), decV func([]byte) (V, int, error)) (map[K]V, error) {
	var d schema.Dictionary
	if err := d.Unmarshal(buf); err != nil {
		return nil, err
	}
	out := make(map[K]V, len(d.Entries))
	for _, e := range d.Entries {
		k, _, err := decK(e.Key)
		if err != nil {
			return nil, err
		}
		v, _, err := decV(e.Value)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
