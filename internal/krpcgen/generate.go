// Package krpcgen implements the build-time code generator: it reads
// a directory of JSON service-catalogue files and emits, per service,
// a Go source file with a service struct, per-class handle types, per-
// enumeration named constants, and three functions per procedure
// (call-builder, invoker, stream-opener). Grounded on
// original_source/krpc_build/mod.rs's generate_module_definition and
// its procedure/receiver-inference helpers, restated against
// github.com/dave/jennifer instead of quote!/syn token trees.
package krpcgen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/goccy/go-json"
	"github.com/iancoleman/strcase"

	"github.com/kladd/krpc-client/internal/gendoc"
	"github.com/kladd/krpc-client/internal/schema"
)

// LoadCatalogue reads every *.json file in dir and merges their
// top-level service objects into one map, tolerating multiple files
// the way the original walks a whole directory via fs::read_dir.
func LoadCatalogue(dir string) (map[string]schema.ServiceDefJSON, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("krpcgen: read catalogue dir: %w", err)
	}

	out := make(map[string]schema.ServiceDefJSON)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("krpcgen: read %s: %w", path, err)
		}
		var doc map[string]schema.ServiceDefJSON
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("krpcgen: parse %s: %w", path, err)
		}
		for name, def := range doc {
			out[name] = def
		}
	}
	return out, nil
}

// GenerateService builds the jen.File for one service. Generation is
// deterministic: every map in the catalogue is walked in sorted-key
// order, so two runs over identical input produce byte-identical
// output modulo jennifer's own formatting.
func GenerateService(serviceName string, def schema.ServiceDefJSON) *jen.File {
	pkgName := strcase.ToSnake(serviceName)
	f := jen.NewFile(pkgName)
	f.ImportName(modulePath, "krpc")
	f.HeaderComment("Code generated by krpcgen. DO NOT EDIT.")

	if doc := gendoc.Parse(def.Documentation); doc != "" {
		f.PackageComment(wrapDoc(serviceName, doc))
	}

	classNames := sortedKeys(def.Classes)
	for _, name := range classNames {
		generateClass(f, name, def.Classes[name])
	}

	enumNames := sortedKeys(def.Enumerations)
	for _, name := range enumNames {
		generateEnum(f, name, def.Enumerations[name])
	}

	generateServiceStruct(f, serviceName)

	procNames := sortedKeys(def.Procedures)
	for _, name := range procNames {
		generateProcedure(f, serviceName, name, def.Procedures[name])
	}

	return f
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func wrapDoc(name, doc string) string {
	return name + " - " + doc
}

// generateClass emits a handle type wrapping krpc.ClassHandle, per
// §4.6: "a handle type (opaque object id + client reference),
// equality by id, with untagged encoding = u64" (equality and
// encoding live on krpc.ClassHandle itself; the generated type adds
// the client reference and a constructor).
func generateClass(f *jen.File, name string, def schema.ClassDefJSON) {
	if doc := gendoc.Parse(def.Documentation); doc != "" {
		f.Comment(wrapDoc(name, doc))
	}
	f.Type().Id(name).Struct(
		jen.Qual(modulePath, "ClassHandle"),
		jen.Id("client").Op("*").Qual(modulePath, "Client"),
	)

	f.Comment(fmt.Sprintf("new%s wraps an object id returned by the server as a %s handle.", name, name))
	f.Func().Id("new"+name).Params(
		jen.Id("id").Uint64(),
		jen.Id("client").Op("*").Qual(modulePath, "Client"),
	).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(jen.Dict{
			jen.Id("ClassHandle"): jen.Qual(modulePath, "ClassHandle").Values(jen.Dict{jen.Id("ID"): jen.Id("id")}),
			jen.Id("client"):      jen.Id("client"),
		})),
	)
}

// generateEnum emits a named int32 enum type with one constant per
// declared variant and a validity set for krpc.DecodeEnumArg, per §3's
// "Named closed set of variants with server-assigned signed 32-bit
// integer tags."
func generateEnum(f *jen.File, name string, def schema.EnumDefJSON) {
	if doc := gendoc.Parse(def.Documentation); doc != "" {
		f.Comment(wrapDoc(name, doc))
	}
	f.Type().Id(name).Int32()

	values := make([]jen.Code, 0, len(def.Values))
	dictEntries := jen.Dict{}
	for _, v := range def.Values {
		constName := name + "_" + v.Name
		if doc := gendoc.Parse(v.Documentation); doc != "" {
			f.Comment(doc)
		}
		values = append(values, jen.Id(constName).Id(name).Op("=").Lit(int(v.Value)))
		dictEntries[jen.Id(constName)] = jen.True()
	}
	f.Const().Defs(values...)

	f.Var().Id(name + "_validValues").Op("=").Map(jen.Id(name)).Bool().Values(dictEntries)
}

func generateServiceStruct(f *jen.File, serviceName string) {
	f.Type().Id(serviceName).Struct(
		jen.Id("client").Op("*").Qual(modulePath, "Client"),
	)
	f.Func().Id("New" + serviceName).Params(
		jen.Id("client").Op("*").Qual(modulePath, "Client"),
	).Op("*").Id(serviceName).Block(
		jen.Return(jen.Op("&").Id(serviceName).Values(jen.Dict{jen.Id("client"): jen.Id("client")})),
	)
}

// receiver splits a procedure name on '_' per §4.6's receiver
// inference: if the first segment starts uppercase and at least one
// further segment follows, that segment names the receiver class and
// the remainder (lower-snake-cased) is the method name; otherwise the
// procedure is a service-level method with the full name lower-
// snake-cased.
func receiver(procName string) (class, method string) {
	segments := strings.SplitN(procName, "_", 2)
	if len(segments) == 2 && segments[0] != "" && isUpperFirst(segments[0]) {
		return segments[0], strcase.ToSnake(segments[1])
	}
	return "", strcase.ToSnake(procName)
}

func isUpperFirst(s string) bool {
	r := []rune(s)
	return len(r) > 0 && r[0] >= 'A' && r[0] <= 'Z'
}

// generateProcedure emits the three functions §4.6 calls for: a call-
// builder, an invoker, and a stream-opener. The receiver (service or
// class) is chosen per the receiver-inference rule above; a "this"
// parameter binds the method receiver instead of becoming an argument.
func generateProcedure(f *jen.File, serviceName, procName string, def schema.ProcDefJSON) {
	class, method := receiver(procName)
	recvType := serviceName
	recvField := "s"
	if class != "" {
		recvType = class
		recvField = "c"
	}

	var argNames []string
	var argExprs []jen.Code
	var paramDecls []jen.Code

	for _, p := range def.Parameters {
		if strings.EqualFold(p.Name, "this") {
			argExprs = append(argExprs, jen.Qual(modulePath, "EncodeClassHandle").Call(
				jen.Id(recvField).Dot("ClassHandle"),
			))
			continue
		}
		name := escapeKeyword(strcase.ToSnake(p.Name))
		rt, err := goType(p.Type)
		if err != nil {
			f.Comment(fmt.Sprintf("%s: %v", procName, err))
			return
		}
		argNames = append(argNames, name)

		paramType := rt.goType
		var encFn jen.Code
		switch {
		case rt.kind == kindClass:
			// EncodeClassArg enforces §4.6's "null in a non-nullable
			// position fails with an encoding error" invariant itself;
			// p.Nullable just tells it whether id 0 is acceptable here.
			encFn = classArgEncodeExpr(rt, p.Nullable)
		case p.Nullable:
			paramType = jen.Op("*").Add(rt.goType.Clone())
			encFn = nullableEncodeExpr(rt, recvField)
		default:
			encFn = encodeValueExpr(rt, recvField)
		}
		paramDecls = append(paramDecls, jen.Id(name).Add(paramType))
		argExprs = append(argExprs, encFn.Clone().Call(jen.Id(name)))
	}

	var hasReturn bool
	var ret resolvedType
	var retType jen.Code
	if def.ReturnType != nil {
		rt, err := goType(*def.ReturnType)
		if err != nil {
			f.Comment(fmt.Sprintf("%s: %v", procName, err))
			return
		}
		hasReturn = true
		ret = rt
		retType = rt.goType
		if def.ReturnIsNullable && rt.kind != kindClass {
			retType = jen.Op("*").Add(rt.goType.Clone())
		}
	}

	if doc := gendoc.Parse(def.Documentation); doc != "" {
		f.Comment(wrapDoc(method, doc))
	}

	callName := strcase.ToCamel(method) + "Call"
	f.Func().Params(jen.Id(recvField).Op("*").Id(recvType)).Id(callName).
		Params(paramDecls...).
		Params(jen.Qual("github.com/kladd/krpc-client/internal/schema", "ProcedureCall")).
		Block(
			jen.Return(jen.Id(recvField).Dot("client").Dot("ProcCall").Call(
				append([]jen.Code{jen.Lit(serviceName), jen.Lit(procName)}, argExprs...)...,
			)),
		)

	if !hasReturn {
		// Void return: invoke, discard the decoded (empty) value.
		f.Func().Params(jen.Id(recvField).Op("*").Id(recvType)).Id(strcase.ToCamel(method)).
			Params(paramDecls...).
			Params(jen.Error()).
			Block(
				jen.List(jen.Id("_"), jen.Id("err")).Op(":=").Id(recvField).Dot("client").Dot("Call").Call(
					jen.Id(recvField).Dot(callName).Call(idList(argNames)...),
				),
				jen.Return(jen.Id("err")),
			)
		return
	}

	var decode jen.Code
	if def.ReturnIsNullable && ret.kind != kindClass {
		decode = nullableDecodeExpr(ret, recvField)
	} else {
		decode = decodeValueExpr(ret, recvField)
	}

	f.Func().Params(jen.Id(recvField).Op("*").Id(recvType)).Id(strcase.ToCamel(method)).
		Params(paramDecls...).
		Params(retType, jen.Error()).
		Block(
			jen.Return(jen.Qual(modulePath, "CallDecode").Index(retType).Call(
				jen.Id(recvField).Dot("client"),
				jen.Id(recvField).Dot(callName).Call(idList(argNames)...),
				decode,
			)),
		)

	f.Func().Params(jen.Id(recvField).Op("*").Id(recvType)).Id(strcase.ToCamel(method)+"Stream").
		Params(paramDecls...).
		Params(jen.Op("*").Qual(modulePath, "Stream").Index(retType), jen.Error()).
		Block(
			jen.List(jen.Id("id"), jen.Id("err")).Op(":=").Id(recvField).Dot("client").Dot("AddStream").Call(
				jen.Id(recvField).Dot(callName).Call(idList(argNames)...),
			),
			jen.If(jen.Id("err").Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Id("err")),
			),
			jen.Return(
				jen.Qual(modulePath, "NewStream").Index(retType).Call(
					jen.Id(recvField).Dot("client"), jen.Id("id"), decode,
				),
				jen.Nil(),
			),
		)
}

// classArgEncodeExpr builds the encode closure for a CLASS-typed
// parameter, threading p.Nullable through to krpc.EncodeClassArg: a
// nullable parameter accepts the id-0 null sentinel, a non-nullable
// one rejects it per §4.6's nullability invariant. EncodeClassArg only
// returns an error on that rejection, which for a non-nullable
// parameter means the caller passed a null handle where one is not
// allowed — a programming error caught immediately rather than sent
// on the wire.
func classArgEncodeExpr(rt resolvedType, nullable bool) jen.Code {
	return jen.Func().Params(jen.Id("v").Add(rt.goType.Clone())).Params(jen.Index().Byte()).Block(
		jen.List(jen.Id("b"), jen.Id("err")).Op(":=").Qual(modulePath, "EncodeClassArg").Call(jen.Id("v").Dot("ClassHandle"), jen.Lit(nullable)),
		jen.If(jen.Id("err").Op("!=").Nil()).Block(
			jen.Panic(jen.Qual("fmt", "Sprintf").Call(jen.Lit("krpc: %v"), jen.Id("err"))),
		),
		jen.Return(jen.Id("b")),
	)
}

// nullableEncodeExpr builds the encode closure for a nullable
// non-class parameter: the Go parameter type is a pointer, and
// krpc.EncodeOptionalArg maps a nil pointer to the absent-value
// representation.
func nullableEncodeExpr(rt resolvedType, recvField string) jen.Code {
	return jen.Func().Params(jen.Id("v").Op("*").Add(rt.goType.Clone())).Params(jen.Index().Byte()).Block(
		jen.Return(jen.Qual(modulePath, "EncodeOptionalArg").Call(jen.Id("v"), encodeValueExpr(rt, recvField))),
	)
}

// nullableDecodeExpr builds the decode closure for a nullable
// non-class return value: krpc.DecodeOptionalArg maps the absent-value
// representation to a nil pointer instead of an indistinguishable
// zero value.
func nullableDecodeExpr(rt resolvedType, recvField string) jen.Code {
	return jen.Func().Params(jen.Id("b").Index().Byte()).Params(jen.Op("*").Add(rt.goType.Clone()), jen.Int(), jen.Error()).Block(
		jen.Return(jen.Qual(modulePath, "DecodeOptionalArg").Call(jen.Id("b"), decodeValueExpr(rt, recvField))),
	)
}

// encodeValueExpr builds a func(T) []byte value for rt's Go type T.
// Primitives already have a ready-made EncodeXArg function matching
// that shape; every other kind needs a closure because encoding it
// requires data (the receiver's client reference for class handles,
// or recursively-built encoders for composite element types) a bare
// function reference cannot carry.
func encodeValueExpr(rt resolvedType, recvField string) jen.Code {
	switch rt.kind {
	case kindClass:
		return jen.Func().Params(jen.Id("v").Add(rt.goType.Clone())).Params(jen.Index().Byte()).Block(
			jen.Return(jen.Qual(modulePath, "EncodeClassHandle").Call(jen.Id("v").Dot("ClassHandle"))),
		)
	case kindEnum:
		return jen.Qual(modulePath, "EncodeEnumArg").Index(rt.goType.Clone())
	case kindList:
		elem := rt.elems[0]
		return jen.Func().Params(jen.Id("v").Add(rt.goType.Clone())).Params(jen.Index().Byte()).Block(
			jen.Return(jen.Qual(modulePath, "EncodeListArg").Call(jen.Id("v"), encodeValueExpr(elem, recvField))),
		)
	case kindSet:
		elem := rt.elems[0]
		return jen.Func().Params(jen.Id("v").Add(rt.goType.Clone())).Params(jen.Index().Byte()).Block(
			jen.Return(jen.Qual(modulePath, "EncodeSetArg").Call(jen.Id("v"), encodeValueExpr(elem, recvField))),
		)
	case kindDict:
		key, val := rt.elems[0], rt.elems[1]
		return jen.Func().Params(jen.Id("v").Add(rt.goType.Clone())).Params(jen.Index().Byte()).Block(
			jen.Return(jen.Qual(modulePath, "EncodeDictArg").Call(jen.Id("v"), encodeValueExpr(key, recvField), encodeValueExpr(val, recvField))),
		)
	case kindTuple:
		fnName := "EncodeTuple" + strconv.Itoa(len(rt.elems)) + "Arg"
		args := []jen.Code{jen.Id("v")}
		for _, e := range rt.elems {
			args = append(args, encodeValueExpr(e, recvField))
		}
		return jen.Func().Params(jen.Id("v").Add(rt.goType.Clone())).Params(jen.Index().Byte()).Block(
			jen.Return(jen.Qual(modulePath, fnName).Call(args...)),
		)
	default:
		return rt.encodeFn
	}
}

// decodeValueExpr builds a func([]byte) (T, int, error) value for
// rt's Go type T, the mirror of encodeValueExpr.
func decodeValueExpr(rt resolvedType, recvField string) jen.Code {
	switch rt.kind {
	case kindClass:
		return jen.Func().Params(jen.Id("b").Index().Byte()).Params(rt.goType.Clone(), jen.Int(), jen.Error()).Block(
			jen.List(jen.Id("h"), jen.Id("n"), jen.Id("err")).Op(":=").Qual(modulePath, "DecodeClassArg").Call(jen.Id("b")),
			jen.If(jen.Id("err").Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Lit(0), jen.Id("err")),
			),
			jen.Return(jen.Id("new"+rt.typeName).Call(jen.Id("h").Dot("ID"), jen.Id(recvField).Dot("client")), jen.Id("n"), jen.Nil()),
		)
	case kindEnum:
		return jen.Func().Params(jen.Id("b").Index().Byte()).Params(rt.goType.Clone(), jen.Int(), jen.Error()).Block(
			jen.Return(jen.Qual(modulePath, "DecodeEnumArg").Index(rt.goType.Clone()).Call(jen.Id("b"), jen.Id(rt.typeName+"_validValues"))),
		)
	case kindList:
		elem := rt.elems[0]
		return jen.Func().Params(jen.Id("b").Index().Byte()).Params(rt.goType.Clone(), jen.Int(), jen.Error()).Block(
			jen.Return(jen.Qual(modulePath, "DecodeListArg").Call(jen.Id("b"), decodeValueExpr(elem, recvField))),
		)
	case kindSet:
		elem := rt.elems[0]
		return jen.Func().Params(jen.Id("b").Index().Byte()).Params(rt.goType.Clone(), jen.Int(), jen.Error()).Block(
			jen.Return(jen.Qual(modulePath, "DecodeSetArg").Call(jen.Id("b"), decodeValueExpr(elem, recvField))),
		)
	case kindDict:
		key, val := rt.elems[0], rt.elems[1]
		return jen.Func().Params(jen.Id("b").Index().Byte()).Params(rt.goType.Clone(), jen.Int(), jen.Error()).Block(
			jen.Return(jen.Qual(modulePath, "DecodeDictArg").Call(jen.Id("b"), decodeValueExpr(key, recvField), decodeValueExpr(val, recvField))),
		)
	case kindTuple:
		fnName := "DecodeTuple" + strconv.Itoa(len(rt.elems)) + "Arg"
		args := []jen.Code{jen.Id("b")}
		for _, e := range rt.elems {
			args = append(args, decodeValueExpr(e, recvField))
		}
		return jen.Func().Params(jen.Id("b").Index().Byte()).Params(rt.goType.Clone(), jen.Int(), jen.Error()).Block(
			jen.Return(jen.Qual(modulePath, fnName).Call(args...)),
		)
	default:
		return rt.decodeFn
	}
}

func idList(names []string) []jen.Code {
	out := make([]jen.Code, len(names))
	for i, n := range names {
		out[i] = jen.Id(n)
	}
	return out
}

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

func escapeKeyword(name string) string {
	if goKeywords[name] {
		return name + "_"
	}
	return name
}
