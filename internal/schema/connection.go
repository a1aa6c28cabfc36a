package schema

import "google.golang.org/protobuf/encoding/protowire"

// ConnectionType distinguishes the two sockets a client opens.
type ConnectionType int32

const (
	ConnectionTypeRPC    ConnectionType = 0
	ConnectionTypeStream ConnectionType = 1
)

// ConnectionRequest is the first message sent on either socket.
type ConnectionRequest struct {
	Type             ConnectionType
	ClientName       string
	ClientIdentifier []byte
}

func (r *ConnectionRequest) Marshal() ([]byte, error) {
	buf := appendVarintField(nil, 1, uint64(r.Type))
	buf = appendStringField(buf, 2, r.ClientName)
	if len(r.ClientIdentifier) > 0 {
		buf = appendBytesField(buf, 3, r.ClientIdentifier)
	}
	return buf, nil
}

func (r *ConnectionRequest) Unmarshal(buf []byte) error {
	*r = ConnectionRequest{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("ConnectionRequest.type", n)
			}
			r.Type = ConnectionType(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ConnectionRequest.client_name", n)
			}
			r.ClientName = string(v)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ConnectionRequest.client_identifier", n)
			}
			r.ClientIdentifier = append([]byte(nil), v...)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}

// ConnectionStatus is the server's verdict on a ConnectionRequest.
type ConnectionStatus int32

const (
	ConnectionStatusOK               ConnectionStatus = 0
	ConnectionStatusMalformedMessage ConnectionStatus = 1
	ConnectionStatusTimeout          ConnectionStatus = 2
	ConnectionStatusWrongType        ConnectionStatus = 3
)

// ConnectionResponse answers a ConnectionRequest.
type ConnectionResponse struct {
	Status           ConnectionStatus
	ClientIdentifier []byte
	Message          string
}

func (r *ConnectionResponse) Marshal() ([]byte, error) {
	buf := appendVarintField(nil, 1, uint64(r.Status))
	if len(r.ClientIdentifier) > 0 {
		buf = appendBytesField(buf, 2, r.ClientIdentifier)
	}
	buf = appendStringField(buf, 3, r.Message)
	return buf, nil
}

func (r *ConnectionResponse) Unmarshal(buf []byte) error {
	*r = ConnectionResponse{}
	return walkFields(buf, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(raw)
			if n < 0 {
				return 0, errMalformed("ConnectionResponse.status", n)
			}
			r.Status = ConnectionStatus(v)
			return n, nil
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ConnectionResponse.client_identifier", n)
			}
			r.ClientIdentifier = append([]byte(nil), v...)
			return n, nil
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(raw)
			if n < 0 {
				return 0, errMalformed("ConnectionResponse.message", n)
			}
			r.Message = string(v)
			return n, nil
		default:
			return consumeUnknown(typ, raw)
		}
	})
}
