package krpc

import (
	"math"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kladd/krpc-client/internal/krpctest"
	"github.com/kladd/krpc-client/internal/schema"
)

func dialTestClient(t *testing.T, srv *krpctest.Server) *Client {
	t.Helper()
	host, rpcPort := splitHostPort(t, srv.RPCAddr())
	_, streamPort := splitHostPort(t, srv.StreamAddr())
	c, err := New(Config{Name: "test", Host: host, RPCPort: rpcPort, StreamPort: streamPort})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func TestClientCallGetStatus(t *testing.T) {
	srv, err := krpctest.Start(func(call schema.ProcedureCall) schema.ProcedureResult {
		if call.Service == "KRPC" && call.Procedure == "GetStatus" {
			status := schema.Status{Version: "0.5.2"}
			buf, _ := status.Marshal()
			return schema.ProcedureResult{Value: EncodeBytesArg(buf)}
		}
		return schema.ProcedureResult{Error: &schema.Error{Description: "unknown procedure"}}
	})
	require.NoError(t, err)
	defer srv.Close()

	c := dialTestClient(t, srv)

	call := c.ProcCall("KRPC", "GetStatus")
	status, err := CallDecode(c, call, func(b []byte) (schema.Status, int, error) {
		raw, n, err := DecodeBytesArg(b)
		if err != nil {
			return schema.Status{}, 0, err
		}
		var s schema.Status
		if err := s.Unmarshal(raw); err != nil {
			return schema.Status{}, 0, err
		}
		return s, n, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "0.5.2", status.Version)
}

func TestClientCallProtocolError(t *testing.T) {
	srv, err := krpctest.Start(func(call schema.ProcedureCall) schema.ProcedureResult {
		return schema.ProcedureResult{Error: &schema.Error{Description: "boom"}}
	})
	require.NoError(t, err)
	defer srv.Close()

	c := dialTestClient(t, srv)

	_, err = c.Call(c.ProcCall("KRPC", "GetStatus"))
	require.Error(t, err)
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, ErrKindProtocol, kerr.Kind())
}

func TestClientRPCOrderingUnderConcurrency(t *testing.T) {
	srv, err := krpctest.Start(func(call schema.ProcedureCall) schema.ProcedureResult {
		// Echo back the single argument unchanged.
		if len(call.Arguments) == 0 {
			return schema.ProcedureResult{}
		}
		return schema.ProcedureResult{Value: call.Arguments[0].Value}
	})
	require.NoError(t, err)
	defer srv.Close()

	c := dialTestClient(t, srv)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int32) {
			defer wg.Done()
			call := c.ProcCall("Echo", "Int32", EncodeInt32Arg(i))
			got, err := CallDecode(c, call, DecodeInt32Arg)
			assert.NoError(t, err)
			assert.Equal(t, i, got)
		}(int32(i))
	}
	wg.Wait()
}

func TestClientStreamReadAndWait(t *testing.T) {
	srv, err := krpctest.Start(func(call schema.ProcedureCall) schema.ProcedureResult {
		if call.Procedure == "AddStream" {
			return schema.ProcedureResult{Value: EncodeUint64Arg(7)}
		}
		return schema.ProcedureResult{}
	})
	require.NoError(t, err)
	defer srv.Close()

	c := dialTestClient(t, srv)

	go func() {
		time.Sleep(20 * time.Millisecond)
		srv.Push(schema.StreamUpdate{Results: []schema.StreamResult{
			{ID: 7, Result: schema.ProcedureResult{Value: EncodeFloat64Arg(1.0)}},
		}})
	}()

	id, err := c.AddStream(c.ProcCall("SpaceCenter", "get_UT"))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)

	s := NewStream(c, id, DecodeFloat64Arg)
	v, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	go func() {
		time.Sleep(10 * time.Millisecond)
		srv.Push(schema.StreamUpdate{Results: []schema.StreamResult{
			{ID: 7, Result: schema.ProcedureResult{Value: EncodeFloat64Arg(2.0)}},
		}})
	}()
	require.NoError(t, s.Wait())
	v2, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, 2.0, v2)

	s.Close()
}

// TestClientDisconnectResilience pins scenario 6 of the disconnect
// resilience behavior: once the background stream reader terminates,
// a Stream.Wait already blocked returns (with an error) instead of
// hanging forever, and AddStream on the now-broken connection fails
// fast instead of blocking on registry.Wait for a push that will
// never arrive.
func TestClientDisconnectResilience(t *testing.T) {
	srv, err := krpctest.Start(func(call schema.ProcedureCall) schema.ProcedureResult {
		if call.Procedure == "AddStream" {
			return schema.ProcedureResult{Value: EncodeUint64Arg(7)}
		}
		return schema.ProcedureResult{}
	})
	require.NoError(t, err)

	c := dialTestClient(t, srv)

	go func() {
		time.Sleep(20 * time.Millisecond)
		srv.Push(schema.StreamUpdate{Results: []schema.StreamResult{
			{ID: 7, Result: schema.ProcedureResult{Value: EncodeFloat64Arg(1.0)}},
		}})
	}()

	id, err := c.AddStream(c.ProcCall("SpaceCenter", "get_UT"))
	require.NoError(t, err)
	s := NewStream(c, id, DecodeFloat64Arg)

	waitErr := make(chan error, 1)
	go func() { waitErr <- s.Wait() }()

	require.NoError(t, srv.Close())

	select {
	case err := <-waitErr:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stream.Wait did not unblock after disconnect")
	}

	require.Eventually(t, func() bool {
		_, err := c.AddStream(c.ProcCall("SpaceCenter", "get_UT"))
		return err != nil
	}, time.Second, 10*time.Millisecond, "AddStream kept succeeding after disconnect")
}

func TestSetStreamRateRejectsNonPositiveOrNonFiniteRate(t *testing.T) {
	srv, err := krpctest.Start(func(call schema.ProcedureCall) schema.ProcedureResult {
		return schema.ProcedureResult{}
	})
	require.NoError(t, err)
	defer srv.Close()

	c := dialTestClient(t, srv)

	for _, hz := range []float32{0, -1, float32(math.Inf(1)), float32(math.NaN())} {
		err := c.SetStreamRate(1, hz)
		require.Error(t, err)
		var kerr *Error
		require.ErrorAs(t, err, &kerr)
		assert.Equal(t, ErrKindEncoding, kerr.Kind())
	}
}
