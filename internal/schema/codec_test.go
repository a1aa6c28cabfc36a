package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestConnectionRequestRoundTrip(t *testing.T) {
	in := ConnectionRequest{
		Type:             ConnectionTypeStream,
		ClientName:       "vessel-monitor",
		ClientIdentifier: []byte{0x01, 0x02, 0x03, 0x04},
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out ConnectionRequest
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestConnectionRequestRPCOmitsIdentifier(t *testing.T) {
	in := ConnectionRequest{Type: ConnectionTypeRPC, ClientName: "rpc-only"}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out ConnectionRequest
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
	require.Empty(t, out.ClientIdentifier)
}

func TestConnectionResponseRoundTrip(t *testing.T) {
	in := ConnectionResponse{
		Status:           ConnectionStatusOK,
		ClientIdentifier: []byte{0xaa, 0xbb},
		Message:          "",
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out ConnectionResponse
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestConnectionResponseErrorMessage(t *testing.T) {
	in := ConnectionResponse{
		Status:  ConnectionStatusMalformedMessage,
		Message: "bad handshake",
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out ConnectionResponse
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestTupleRoundTrip(t *testing.T) {
	in := Tuple{Items: [][]byte{{1}, {2, 3}, {}}}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out Tuple
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in.Items, out.Items)
}

func TestListRoundTrip(t *testing.T) {
	in := List{Items: [][]byte{{9, 9}, {8}}}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out List
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in.Items, out.Items)
}

func TestDictionaryRoundTrip(t *testing.T) {
	in := Dictionary{Entries: []DictionaryEntry{
		{Key: []byte("a"), Value: []byte{1}},
		{Key: []byte("b"), Value: []byte{2}},
	}}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out Dictionary
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in.Entries, out.Entries)
}

func TestArgumentRoundTrip(t *testing.T) {
	in := Argument{Position: 2, Value: []byte{0x12, 0x34}}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out Argument
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestProcedureCallRoundTrip(t *testing.T) {
	in := ProcedureCall{
		Service:     "SpaceCenter",
		Procedure:   "Vessel_get_Name",
		ServiceID:   7,
		ProcedureID: 42,
		Arguments: []Argument{
			{Position: 0, Value: []byte{0x01}},
		},
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out ProcedureCall
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestRequestSingleCall(t *testing.T) {
	call := ProcedureCall{Service: "KRPC", Procedure: "GetStatus"}
	req := NewRequest(call)
	require.Len(t, req.Calls, 1)

	buf, err := req.Marshal()
	require.NoError(t, err)

	var out Request
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, req.Calls, out.Calls)
}

func TestProcedureResultWithError(t *testing.T) {
	in := ProcedureResult{
		Error: &Error{Service: "SpaceCenter", Name: "NoActiveVessel", Description: "no active vessel"},
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out ProcedureResult
	require.NoError(t, out.Unmarshal(buf))
	require.Nil(t, out.Value)
	require.Equal(t, in.Error, out.Error)
}

func TestResponseRoundTrip(t *testing.T) {
	in := Response{
		Results: []ProcedureResult{
			{Value: []byte{0x01}},
			{Value: []byte{0x02}},
		},
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out Response
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestStreamUpdateRoundTrip(t *testing.T) {
	in := StreamUpdate{
		Results: []StreamResult{
			{ID: 1, Result: ProcedureResult{Value: []byte{0x10}}},
			{ID: 2, Result: ProcedureResult{Value: []byte{0x20}}},
		},
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out StreamUpdate
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestStatusRoundTrip(t *testing.T) {
	in := Status{
		Version:             "0.5.2",
		BytesRead:           1024,
		BytesWritten:        2048,
		RPCsExecuted:        99,
		RPCRate:             59.94,
		CurrentGameScene:    1,
		MaxTimePerUpdate:    150,
		AdaptiveRateControl: true,
		BlockingRecv:        false,
	}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out Status
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestServicesRoundTrip(t *testing.T) {
	in := Services{Services: []ServiceMessage{
		{
			Name: "SpaceCenter",
			Procedures: []ProcedureMessage{
				{
					Name: "Vessel_get_Name",
					Parameters: []ParameterMessage{
						{Name: "this", Type: TypeMessage{Code: "CLASS", Service: "SpaceCenter", Name: "Vessel"}},
					},
					ReturnType: &TypeMessage{Code: "STRING"},
				},
			},
			Classes: []ClassMessage{{Name: "Vessel", Documentation: "<doc>A vessel.</doc>"}},
			Enumerations: []EnumerationMessage{
				{
					Name: "VesselType",
					Values: []EnumerationValueMessage{
						{Name: "Ship", Value: 0},
						{Name: "Station", Value: 1},
					},
				},
			},
		},
	}}
	buf, err := in.Marshal()
	require.NoError(t, err)

	var out Services
	require.NoError(t, out.Unmarshal(buf))
	require.Equal(t, in, out)
}

func TestWalkFieldsRejectsTruncatedTag(t *testing.T) {
	err := walkFields([]byte{0x80}, func(num protowire.Number, typ protowire.Type, raw []byte) (int, error) {
		return 0, nil
	})
	require.Error(t, err)
}

func TestConnectionResponseRejectsMalformedField(t *testing.T) {
	var out ConnectionResponse
	// Tag for field 1 varint, then a continuation byte with nothing after.
	err := out.Unmarshal([]byte{0x08, 0x80})
	require.Error(t, err)
}
