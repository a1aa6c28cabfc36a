package krpcgen

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/kladd/krpc-client/internal/schema"
)

const modulePath = "github.com/kladd/krpc-client"
const schemaPath = modulePath + "/internal/schema"

// typeKind distinguishes how goType's result must be decoded/encoded:
// a primitive has ready-made EncodeXArg/DecodeXArg functions in
// package krpc, and a message type uses krpc.EncodeMessageArg/
// DecodeMessageArg; a class decodes to an object id that must be
// wrapped in the generated handle constructor; an enum decodes
// through krpc.DecodeEnumArg against a generated validity map and has
// no encode-time nullability to consider; a list, set, dictionary, or
// tuple composes the matching krpc helper over its component types.
type typeKind int

const (
	kindPrimitive typeKind = iota
	kindClass
	kindEnum
	kindList
	kindSet
	kindDict
	kindTuple
	kindMessage
)

// resolvedType is everything generateProcedure needs to plumb one
// parameter or return value through a call-builder, invoker, and
// stream-opener. elems holds component types for the composite kinds:
// one entry for kindList/kindSet, two for kindDict (key, value), and
// one per tuple item (2-4) for kindTuple.
type resolvedType struct {
	kind     typeKind
	goType   jen.Code
	typeName string // class, enum, TupleN, or message name; empty for primitives, lists, sets, and dictionaries
	decodeFn jen.Code
	encodeFn jen.Code
	elems    []resolvedType
}

// goType maps one catalogue type specification to its Go
// representation, implementing §4.6's type mapping table. TUPLE,
// LIST, SET, and DICTIONARY recurse into their declared component
// types (t.Types) and compose against codec.go's generic
// Tuple2-Tuple4/List/Set/Dictionary helpers.
func goType(t schema.TypeDefJSON) (resolvedType, error) {
	switch t.Code {
	case "STRING":
		return resolvedType{goType: jen.String(), decodeFn: jen.Qual(modulePath, "DecodeStringArg"), encodeFn: jen.Qual(modulePath, "EncodeStringArg")}, nil
	case "SINT32":
		return resolvedType{goType: jen.Int32(), decodeFn: jen.Qual(modulePath, "DecodeInt32Arg"), encodeFn: jen.Qual(modulePath, "EncodeInt32Arg")}, nil
	case "SINT64":
		return resolvedType{goType: jen.Int64(), decodeFn: jen.Qual(modulePath, "DecodeInt64Arg"), encodeFn: jen.Qual(modulePath, "EncodeInt64Arg")}, nil
	case "UINT32":
		return resolvedType{goType: jen.Uint32(), decodeFn: jen.Qual(modulePath, "DecodeUint32Arg"), encodeFn: jen.Qual(modulePath, "EncodeUint32Arg")}, nil
	case "UINT64":
		return resolvedType{goType: jen.Uint64(), decodeFn: jen.Qual(modulePath, "DecodeUint64Arg"), encodeFn: jen.Qual(modulePath, "EncodeUint64Arg")}, nil
	case "BOOL":
		return resolvedType{goType: jen.Bool(), decodeFn: jen.Qual(modulePath, "DecodeBoolArg"), encodeFn: jen.Qual(modulePath, "EncodeBoolArg")}, nil
	case "FLOAT":
		return resolvedType{goType: jen.Float32(), decodeFn: jen.Qual(modulePath, "DecodeFloat32Arg"), encodeFn: jen.Qual(modulePath, "EncodeFloat32Arg")}, nil
	case "DOUBLE":
		return resolvedType{goType: jen.Float64(), decodeFn: jen.Qual(modulePath, "DecodeFloat64Arg"), encodeFn: jen.Qual(modulePath, "EncodeFloat64Arg")}, nil
	case "BYTES":
		return resolvedType{goType: jen.Index().Byte(), decodeFn: jen.Qual(modulePath, "DecodeBytesArg"), encodeFn: jen.Qual(modulePath, "EncodeBytesArg")}, nil
	case "CLASS":
		// Same-service classes are unqualified; cross-service classes
		// would need an import of that service's generated package,
		// left for a future extension once multi-service generation
		// order is established.
		return resolvedType{kind: kindClass, goType: jen.Op("*").Id(t.Name), typeName: t.Name}, nil
	case "ENUMERATION":
		return resolvedType{kind: kindEnum, goType: jen.Id(t.Name), typeName: t.Name}, nil
	case "LIST":
		if len(t.Types) != 1 {
			return resolvedType{}, fmt.Errorf("krpcgen: LIST needs exactly one component type, got %d", len(t.Types))
		}
		elem, err := goType(t.Types[0])
		if err != nil {
			return resolvedType{}, err
		}
		return resolvedType{kind: kindList, goType: jen.Index().Add(elem.goType), elems: []resolvedType{elem}}, nil
	case "SET":
		if len(t.Types) != 1 {
			return resolvedType{}, fmt.Errorf("krpcgen: SET needs exactly one component type, got %d", len(t.Types))
		}
		elem, err := goType(t.Types[0])
		if err != nil {
			return resolvedType{}, err
		}
		return resolvedType{kind: kindSet, goType: jen.Map(elem.goType).Struct(), elems: []resolvedType{elem}}, nil
	case "DICTIONARY":
		if len(t.Types) != 2 {
			return resolvedType{}, fmt.Errorf("krpcgen: DICTIONARY needs exactly two component types, got %d", len(t.Types))
		}
		key, err := goType(t.Types[0])
		if err != nil {
			return resolvedType{}, err
		}
		val, err := goType(t.Types[1])
		if err != nil {
			return resolvedType{}, err
		}
		return resolvedType{kind: kindDict, goType: jen.Map(key.goType).Add(val.goType), elems: []resolvedType{key, val}}, nil
	case "TUPLE":
		if len(t.Types) < 2 || len(t.Types) > 4 {
			return resolvedType{}, fmt.Errorf("krpcgen: unsupported tuple arity %d (standard arities are 2-4)", len(t.Types))
		}
		elems := make([]resolvedType, len(t.Types))
		elemGoTypes := make([]jen.Code, len(t.Types))
		for i, ct := range t.Types {
			e, err := goType(ct)
			if err != nil {
				return resolvedType{}, err
			}
			elems[i] = e
			elemGoTypes[i] = e.goType
		}
		tupleName := fmt.Sprintf("Tuple%d", len(elems))
		return resolvedType{
			kind:     kindTuple,
			goType:   jen.Qual(modulePath, tupleName).Types(elemGoTypes...),
			typeName: tupleName,
			elems:    elems,
		}, nil
	case "STATUS":
		return messageType("Status"), nil
	case "SERVICES":
		return messageType("Services"), nil
	case "EVENT":
		return messageType("Event"), nil
	case "STREAM":
		return messageType("Stream"), nil
	case "PROCEDURE_CALL":
		return messageType("ProcedureCall"), nil
	default:
		return resolvedType{}, fmt.Errorf("krpcgen: unsupported type code %q for %s.%s", t.Code, t.Service, t.Name)
	}
}

// messageType builds the resolvedType for one of the message-typed
// catalogue codes (STATUS/SERVICES/EVENT/STREAM/PROCEDURE_CALL): these
// decode to their own internal/schema message type via
// krpc.EncodeMessageArg/DecodeMessageArg rather than an untagged
// primitive or composite codec, since their wire form is already a
// complete protobuf message.
func messageType(name string) resolvedType {
	schemaType := jen.Qual(schemaPath, name)
	return resolvedType{
		kind:     kindMessage,
		goType:   schemaType,
		typeName: name,
		encodeFn: jen.Qual(modulePath, "EncodeMessageArg").Types(schemaType.Clone(), jen.Op("*").Add(schemaType.Clone())),
		decodeFn: jen.Qual(modulePath, "DecodeMessageArg").Types(schemaType.Clone(), jen.Op("*").Add(schemaType.Clone())),
	}
}

