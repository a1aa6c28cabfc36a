package schema

// The types below mirror the generator's JSON input shape (§6's
// "Service catalogue format"): an object mapping service names to
// service definitions, each with optional classes/enumerations/
// procedures maps. Missing maps are treated as empty by the zero value
// of a Go map, satisfying the "tolerate missing keys" requirement
// without extra code.

// ServiceDefJSON is one service's JSON definition.
type ServiceDefJSON struct {
	Documentation string                    `json:"documentation"`
	Classes       map[string]ClassDefJSON   `json:"classes"`
	Enumerations  map[string]EnumDefJSON    `json:"enumerations"`
	Procedures    map[string]ProcDefJSON    `json:"procedures"`
}

// ClassDefJSON is one class's JSON definition.
type ClassDefJSON struct {
	Documentation string `json:"documentation"`
}

// EnumDefJSON is one enumeration's JSON definition.
type EnumDefJSON struct {
	Documentation string             `json:"documentation"`
	Values        []EnumValueDefJSON `json:"values"`
}

// EnumValueDefJSON is one named, numbered enum member.
type EnumValueDefJSON struct {
	Name          string `json:"name"`
	Value         int32  `json:"value"`
	Documentation string `json:"documentation"`
}

// ProcDefJSON is one procedure's JSON definition.
type ProcDefJSON struct {
	Documentation    string           `json:"documentation"`
	Parameters       []ParamDefJSON   `json:"parameters"`
	ReturnType       *TypeDefJSON     `json:"return_type"`
	ReturnIsNullable bool             `json:"return_is_nullable"`
}

// ParamDefJSON is one formal parameter's JSON definition.
type ParamDefJSON struct {
	Name     string     `json:"name"`
	Type     TypeDefJSON `json:"type"`
	Nullable bool       `json:"nullable"`
}

// TypeDefJSON is a JSON type specification: Code identifies a
// primitive or composite kind; Types holds nested component types for
// TUPLE/LIST/SET/DICTIONARY; Service+Name identify a CLASS or
// ENUMERATION by qualified name.
type TypeDefJSON struct {
	Code    string        `json:"code"`
	Types   []TypeDefJSON `json:"types"`
	Service string        `json:"service"`
	Name    string        `json:"name"`
}
