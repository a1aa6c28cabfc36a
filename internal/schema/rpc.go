package schema

import "google.golang.org/protobuf/encoding/protowire"

// Error is the server-reported failure payload carried by Response and
// ProcedureResult.
type Error struct {
	Service     string
	Name        string
	Description string
	StackTrace  string
}

func (e *Error) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, e.Service)
	buf = appendStringField(buf, 2, e.Name)
	buf = appendStringField(buf, 3, e.Description)
	buf = appendStringField(buf, 4, e.StackTrace)
	return buf, nil
}

func (e *Error) Unmarshal(buf []byte) error {
	*e = Error{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if typ != protowire.BytesType {
			return consumeUnknown(typ, raw)
		}
		v, n := protowire.ConsumeBytes(raw)
		if n < 0 {
			return 0, errMalformed("Error", n)
		}
		switch num {
		case 1:
			e.Service = string(v)
		case 2:
			e.Name = string(v)
		case 3:
			e.Description = string(v)
		case 4:
			e.StackTrace = string(v)
		}
		return n, nil
	})
}

func (e *Error) String() string {
	if e == nil {
		return ""
	}
	if e.Service != "" || e.Name != "" {
		return e.Service + "." + e.Name + ": " + e.Description
	}
	return e.Description
}

// Argument is one positional argument of a ProcedureCall. Value holds
// the untagged encoding of the parameter at Position.
type Argument struct {
	Position uint32
	Value    []byte
}

func (a *Argument) Marshal() ([]byte, error) {
	buf := appendVarintField(nil, 1, uint64(a.Position))
	buf = appendBytesField(buf, 2, a.Value)
	return buf, nil
}

func (a *Argument) Unmarshal(buf []byte) error {
	*a = Argument{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("Argument.position", n)
			}
			a.Position = uint32(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Argument.value", n)
			}
			a.Value = append([]byte(nil), v...)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// ProcedureCall identifies a single service-qualified procedure
// invocation with its positional arguments.
type ProcedureCall struct {
	Service     string
	Procedure   string
	ServiceID   uint32
	ProcedureID uint32
	Arguments   []Argument
}

func (c *ProcedureCall) Marshal() ([]byte, error) {
	buf := appendStringField(nil, 1, c.Service)
	buf = appendStringField(buf, 2, c.Procedure)
	if c.ServiceID != 0 {
		buf = appendVarintField(buf, 3, uint64(c.ServiceID))
	}
	if c.ProcedureID != 0 {
		buf = appendVarintField(buf, 4, uint64(c.ProcedureID))
	}
	for i := range c.Arguments {
		var err error
		buf, err = appendMessageField(buf, 5, &c.Arguments[i])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (c *ProcedureCall) Unmarshal(buf []byte) error {
	*c = ProcedureCall{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureCall.service", n)
			}
			c.Service = string(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureCall.procedure", n)
			}
			c.Procedure = string(v)
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureCall.service_id", n)
			}
			c.ServiceID = uint32(v)
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureCall.procedure_id", n)
			}
			c.ProcedureID = uint32(v)
			return n, nil
		case num == 5 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureCall.arguments", n)
			}
			var arg Argument
			if err := arg.Unmarshal(v); err != nil {
				return 0, err
			}
			c.Arguments = append(c.Arguments, arg)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// Request carries one or more procedure calls. This client always
// issues single-call requests (see the "result-array semantics" open
// question in SPEC_FULL.md).
type Request struct {
	Calls []ProcedureCall
}

// NewRequest builds a single-call Request, the only shape this client
// ever sends.
func NewRequest(call ProcedureCall) Request {
	return Request{Calls: []ProcedureCall{call}}
}

func (r *Request) Marshal() ([]byte, error) {
	var buf []byte
	for i := range r.Calls {
		var err error
		buf, err = appendMessageField(buf, 1, &r.Calls[i])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (r *Request) Unmarshal(buf []byte) error {
	r.Calls = nil
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Request.calls", n)
			}
			var call ProcedureCall
			if err := call.Unmarshal(v); err != nil {
				return 0, err
			}
			r.Calls = append(r.Calls, call)
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}

// ProcedureResult is the outcome of one ProcedureCall: either a value
// (possibly empty, for a void return) or an Error.
type ProcedureResult struct {
	Value []byte
	Error *Error
}

func (r *ProcedureResult) Marshal() ([]byte, error) {
	var buf []byte
	if len(r.Value) > 0 {
		buf = appendBytesField(buf, 1, r.Value)
	}
	if r.Error != nil {
		var err error
		buf, err = appendMessageField(buf, 2, r.Error)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (r *ProcedureResult) Unmarshal(buf []byte) error {
	*r = ProcedureResult{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureResult.value", n)
			}
			r.Value = append([]byte(nil), v...)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ProcedureResult.error", n)
			}
			var e Error
			if err := e.Unmarshal(v); err != nil {
				return 0, err
			}
			r.Error = &e
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// Response answers a Request. The core issues one call per request and
// reads Results[0]; see the open question this resolves in
// SPEC_FULL.md §9.1.
type Response struct {
	Error   *Error
	Results []ProcedureResult
}

func (r *Response) Marshal() ([]byte, error) {
	var buf []byte
	var err error
	if r.Error != nil {
		buf, err = appendMessageField(buf, 1, r.Error)
		if err != nil {
			return nil, err
		}
	}
	for i := range r.Results {
		buf, err = appendMessageField(buf, 2, &r.Results[i])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (r *Response) Unmarshal(buf []byte) error {
	*r = Response{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Response.error", n)
			}
			var e Error
			if err := e.Unmarshal(v); err != nil {
				return 0, err
			}
			r.Error = &e
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("Response.results", n)
			}
			var res ProcedureResult
			if err := res.Unmarshal(v); err != nil {
				return 0, err
			}
			r.Results = append(r.Results, res)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// StreamResult pairs a stream id with its latest pushed result.
type StreamResult struct {
	ID     uint64
	Result ProcedureResult
}

func (s *StreamResult) Marshal() ([]byte, error) {
	buf := appendVarintField(nil, 1, s.ID)
	var err error
	buf, err = appendMessageField(buf, 2, &s.Result)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *StreamResult) Unmarshal(buf []byte) error {
	*s = StreamResult{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("StreamResult.id", n)
			}
			s.ID = v
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("StreamResult.result", n)
			}
			if err := s.Result.Unmarshal(v); err != nil {
				return 0, err
			}
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// StreamUpdate is pushed unsolicited on the STREAM socket, carrying the
// latest result for every stream that changed since the last update.
type StreamUpdate struct {
	Results []StreamResult
}

func (u *StreamUpdate) Marshal() ([]byte, error) {
	var buf []byte
	for i := range u.Results {
		var err error
		buf, err = appendMessageField(buf, 1, &u.Results[i])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func (u *StreamUpdate) Unmarshal(buf []byte) error {
	u.Results = nil
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("StreamUpdate.results", n)
			}
			var sr StreamResult
			if err := sr.Unmarshal(v); err != nil {
				return 0, err
			}
			u.Results = append(u.Results, sr)
			return n, nil
		}
		return consumeUnknown(typ, raw)
	})
}
