package schema

import "google.golang.org/protobuf/encoding/protowire"

// Tuple is the wire representation of a fixed-arity heterogeneous
// tuple. Items[i] holds the untagged encoding of component i.
type Tuple struct {
	Items [][]byte
}

func (t *Tuple) Marshal() ([]byte, error) {
	var buf []byte
	for _, item := range t.Items {
		buf = appendBytesField(buf, 1, item)
	}
	return buf, nil
}

func (t *Tuple) Unmarshal(buf []byte) error {
	t.Items = nil
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Tuple.items", n)
			}
			t.Items = append(t.Items, append([]byte{}, v...))
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}

// List is the wire representation of a homogeneous ordered sequence.
type List struct {
	Items [][]byte
}

func (l *List) Marshal() ([]byte, error) {
	var buf []byte
	for _, item := range l.Items {
		buf = appendBytesField(buf, 1, item)
	}
	return buf, nil
}

func (l *List) Unmarshal(buf []byte) error {
	l.Items = nil
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("List.items", n)
			}
			l.Items = append(l.Items, append([]byte(nil), v...))
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}

// Set is the wire representation of an unordered collection of
// distinct items. Decoding does not itself deduplicate raw entries;
// the typed codec layer (package krpc) collapses duplicates by
// decoded value, since equality for a Set is defined on the decoded
// type, not on its raw bytes.
type Set struct {
	Items [][]byte
}

func (s *Set) Marshal() ([]byte, error) {
	var buf []byte
	for _, item := range s.Items {
		buf = appendBytesField(buf, 1, item)
	}
	return buf, nil
}

func (s *Set) Unmarshal(buf []byte) error {
	s.Items = nil
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Set.items", n)
			}
			s.Items = append(s.Items, append([]byte(nil), v...))
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}

// Stream identifies a server-side stream by id, the message-typed form
// of a STREAM-coded value (as opposed to the untagged uint64 id a
// generated stream-opener works with directly).
type Stream struct {
	ID uint64
}

func (s *Stream) Marshal() ([]byte, error) {
	return appendVarintField(nil, 1, s.ID), nil
}

func (s *Stream) Unmarshal(buf []byte) error {
	s.ID = 0
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Stream.id", n)
			}
			s.ID = v
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}

// Event is the message-typed form of an EVENT-coded value: a procedure
// or property change signalled by pushing to the wrapped Stream.
type Event struct {
	Stream Stream
}

func (e *Event) Marshal() ([]byte, error) {
	return appendMessageField(nil, 1, &e.Stream)
}

func (e *Event) Unmarshal(buf []byte) error {
	e.Stream = Stream{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Event.stream", n)
			}
			if err := e.Stream.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}

// DictionaryEntry is one key/value pair of a Dictionary.
type DictionaryEntry struct {
	Key   []byte
	Value []byte
}

func (e *DictionaryEntry) Marshal() ([]byte, error) {
	buf := appendBytesField(nil, 1, e.Key)
	buf = appendBytesField(buf, 2, e.Value)
	return buf, nil
}

func (e *DictionaryEntry) Unmarshal(buf []byte) error {
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("DictionaryEntry.key", n)
			}
			e.Key = append([]byte(nil), v...)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("DictionaryEntry.value", n)
			}
			e.Value = append([]byte(nil), v...)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// Dictionary is the wire representation of a string/value mapping.
// Keys are required unique on encode; decode keeps the last value
// seen for a duplicate key, per the spec's documented precedence.
type Dictionary struct {
	Entries []DictionaryEntry
}

func (d *Dictionary) Marshal() ([]byte, error) {
	var buf []byte
	for i := range d.Entries {
		var err error
		buf, err = appendMessageField(buf, 1, &d.Entries[i])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (d *Dictionary) Unmarshal(buf []byte) error {
	d.Entries = nil
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Dictionary.entries", n)
			}
			var entry DictionaryEntry
			if err := entry.Unmarshal(v); err != nil {
				return 0, err
			}
			d.Entries = append(d.Entries, entry)
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}
