package schema

import "google.golang.org/protobuf/encoding/protowire"

// Services is the payload of KRPC.GetServices: the full catalogue of
// services, procedures, classes, and enumerations a server exposes.
// cmd/krpcgen consumes this shape (via its JSON mirror, see
// internal/schema/json.go) rather than the wire form directly, but the
// root krpc package decodes it at runtime for KRPC.GetServices itself.
type Services struct {
	Services []ServiceMessage
}

func (s *Services) Marshal() ([]byte, error) {
	var buf []byte
	for i := range s.Services {
		var err error
		buf, err = appendMessageField(buf, 1, &s.Services[i])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (s *Services) Unmarshal(buf []byte) error {
	s.Services = nil
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Services.services", n)
			}
			var svc ServiceMessage
			if err := svc.Unmarshal(v); err != nil {
				return 0, err
			}
			s.Services = append(s.Services, svc)
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}

// ServiceMessage describes one service: its procedures, classes, and
// enumerations.
type ServiceMessage struct {
	Name          string
	Procedures    []ProcedureMessage
	Classes       []ClassMessage
	Enumerations  []EnumerationMessage
	Documentation string
}

func (s *ServiceMessage) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, s.Name)
	var err error
	for i := range s.Procedures {
		buf, err = appendMessageField(buf, 2, &s.Procedures[i])
		if err != nil {
			return nil, err
		}
	}
	for i := range s.Classes {
		buf, err = appendMessageField(buf, 3, &s.Classes[i])
		if err != nil {
			return nil, err
		}
	}
	for i := range s.Enumerations {
		buf, err = appendMessageField(buf, 4, &s.Enumerations[i])
		if err != nil {
			return nil, err
		}
	}
	buf = appendStringField(buf, 5, s.Documentation)
	return buf, nil
}

func (s *ServiceMessage) Unmarshal(buf []byte) error {
	*s = ServiceMessage{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ServiceMessage.name", n)
			}
			s.Name = string(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ServiceMessage.procedures", n)
			}
			var p ProcedureMessage
			if err := p.Unmarshal(v); err != nil {
				return 0, err
			}
			s.Procedures = append(s.Procedures, p)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ServiceMessage.classes", n)
			}
			var c ClassMessage
			if err := c.Unmarshal(v); err != nil {
				return 0, err
			}
			s.Classes = append(s.Classes, c)
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ServiceMessage.enumerations", n)
			}
			var e EnumerationMessage
			if err := e.Unmarshal(v); err != nil {
				return 0, err
			}
			s.Enumerations = append(s.Enumerations, e)
			return n, nil
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ServiceMessage.documentation", n)
			}
			s.Documentation = string(v)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// ProcedureMessage describes one procedure's parameter and return
// types, as plain kRPC type specifications (the JSON "code"/type-spec
// shape cmd/krpcgen maps to Go types).
type ProcedureMessage struct {
	Name          string
	Parameters    []ParameterMessage
	ReturnType    *TypeMessage
	ReturnIsNullable bool
	Documentation string
}

func (p *ProcedureMessage) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, p.Name)
	var err error
	for i := range p.Parameters {
		buf, err = appendMessageField(buf, 2, &p.Parameters[i])
		if err != nil {
			return nil, err
		}
	}
	if p.ReturnType != nil {
		buf, err = appendMessageField(buf, 3, p.ReturnType)
		if err != nil {
			return nil, err
		}
	}
	buf = appendBoolField(buf, 4, p.ReturnIsNullable)
	buf = appendStringField(buf, 5, p.Documentation)
	return buf, nil
}

func (p *ProcedureMessage) Unmarshal(buf []byte) error {
	*p = ProcedureMessage{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureMessage.name", n)
			}
			p.Name = string(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureMessage.parameters", n)
			}
			var param ParameterMessage
			if err := param.Unmarshal(v); err != nil {
				return 0, err
			}
			p.Parameters = append(p.Parameters, param)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureMessage.return_type", n)
			}
			var t TypeMessage
			if err := t.Unmarshal(v); err != nil {
				return 0, err
			}
			p.ReturnType = &t
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureMessage.return_is_nullable", n)
			}
			p.ReturnIsNullable = v != 0
			return n, nil
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureMessage.documentation", n)
			}
			p.Documentation = string(v)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// ParameterMessage is one formal parameter of a ProcedureMessage.
type ParameterMessage struct {
	Name       string
	Type       TypeMessage
	IsNullable bool
}

func (p *ParameterMessage) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, p.Name)
	var err error
	buf, err = appendMessageField(buf, 2, &p.Type)
	if err != nil {
		return nil, err
	}
	buf = appendBoolField(buf, 3, p.IsNullable)
	return buf, nil
}

func (p *ParameterMessage) Unmarshal(buf []byte) error {
	*p = ParameterMessage{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ParameterMessage.name", n)
			}
			p.Name = string(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ParameterMessage.type", n)
			}
			if err := p.Type.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("ParameterMessage.is_nullable", n)
			}
			p.IsNullable = v != 0
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// TypeMessage is a kRPC type specification: a primitive code, or a
// composite code (TUPLE/LIST/SET/DICTIONARY) with nested component
// types, or a CLASS/ENUMERATION reference qualified by service name.
type TypeMessage struct {
	Code        string
	Types       []TypeMessage
	Service     string
	Name        string
}

func (t *TypeMessage) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, t.Code)
	var err error
	for i := range t.Types {
		buf, err = appendMessageField(buf, 2, &t.Types[i])
		if err != nil {
			return nil, err
		}
	}
	buf = appendStringField(buf, 3, t.Service)
	buf = appendStringField(buf, 4, t.Name)
	return buf, nil
}

func (t *TypeMessage) Unmarshal(buf []byte) error {
	*t = TypeMessage{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("TypeMessage.code", n)
			}
			t.Code = string(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("TypeMessage.types", n)
			}
			var sub TypeMessage
			if err := sub.Unmarshal(v); err != nil {
				return 0, err
			}
			t.Types = append(t.Types, sub)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("TypeMessage.service", n)
			}
			t.Service = string(v)
			return n, nil
		case num == 4 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("TypeMessage.name", n)
			}
			t.Name = string(v)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// ClassMessage describes one class exposed by a service: an opaque
// handle type identified at runtime by a uint64 object id.
type ClassMessage struct {
	Name          string
	Documentation string
}

func (c *ClassMessage) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, c.Name)
	buf = appendStringField(buf, 2, c.Documentation)
	return buf, nil
}

func (c *ClassMessage) Unmarshal(buf []byte) error {
	*c = ClassMessage{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ClassMessage.name", n)
			}
			c.Name = string(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ClassMessage.documentation", n)
			}
			c.Documentation = string(v)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// EnumerationMessage describes one enum type and its named values.
type EnumerationMessage struct {
	Name          string
	Values        []EnumerationValueMessage
	Documentation string
}

func (e *EnumerationMessage) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, e.Name)
	var err error
	for i := range e.Values {
		buf, err = appendMessageField(buf, 2, &e.Values[i])
		if err != nil {
			return nil, err
		}
	}
	buf = appendStringField(buf, 3, e.Documentation)
	return buf, nil
}

func (e *EnumerationMessage) Unmarshal(buf []byte) error {
	*e = EnumerationMessage{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("EnumerationMessage.name", n)
			}
			e.Name = string(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("EnumerationMessage.values", n)
			}
			var val EnumerationValueMessage
			if err := val.Unmarshal(v); err != nil {
				return 0, err
			}
			e.Values = append(e.Values, val)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("EnumerationMessage.documentation", n)
			}
			e.Documentation = string(v)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// EnumerationValueMessage is one named, numbered member of an
// EnumerationMessage.
type EnumerationValueMessage struct {
	Name          string
	Value         int32
	Documentation string
}

func (v *EnumerationValueMessage) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, v.Name)
	buf = appendVarintField(buf, 2, uint64(uint32(v.Value)))
	buf = appendStringField(buf, 3, v.Documentation)
	return buf, nil
}

func (v *EnumerationValueMessage) Unmarshal(buf []byte) error {
	*v = EnumerationValueMessage{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("EnumerationValueMessage.name", n)
			}
			v.Name = string(b)
			return n, nil
		case num == 2 && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("EnumerationValueMessage.value", n)
			}
			v.Value = int32(uint32(x))
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			b, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("EnumerationValueMessage.documentation", n)
			}
			v.Documentation = string(b)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}
