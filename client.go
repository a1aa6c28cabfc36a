package krpc

import (
	"fmt"
	"math"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kladd/krpc-client/internal/registry"
	"github.com/kladd/krpc-client/internal/schema"
	"github.com/kladd/krpc-client/internal/transport"
)

// Client owns the RPC and (optionally) STREAM connections plus the
// stream registry, and is the shared-ownership handle every generated
// service façade and Stream[T] holds a reference to. Stream handles
// hold a reference up to the Client only — the registry never holds a
// reference back down to a handle — so there is no ownership cycle to
// break at teardown.
type Client struct {
	log *zap.Logger

	rpc *transport.RPCConn

	stream       *transport.StreamConn
	streamBroken atomic.Bool
	registry     *registry.Registry

	readerDone chan struct{}
}

// New connects to a kRPC server and performs both handshakes. When
// cfg.RPCOnly is set, only the RPC connection is established (see
// SPEC_FULL.md's RPC-only supplement); stream operations then fail
// with ErrKindClient.
func New(cfg Config) (*Client, error) {
	if err := cfg.SetDefaults(); err != nil {
		return nil, newClientError("apply config defaults", err)
	}

	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}

	rpcConn, clientID, err := transport.DialRPC(cfg.rpcAddr(), cfg.Name)
	if err != nil {
		return nil, newConnectionError("rpc handshake", err)
	}

	c := &Client{
		log:      log,
		rpc:      rpcConn,
		registry: registry.New(),
	}

	if cfg.RPCOnly {
		log.Info("krpc client connected (rpc-only)", zap.String("addr", cfg.rpcAddr()))
		return c, nil
	}

	streamConn, err := transport.DialStream(cfg.streamAddr(), cfg.Name, clientID)
	if err != nil {
		rpcConn.Close()
		return nil, newConnectionError("stream handshake", err)
	}
	c.stream = streamConn
	c.readerDone = make(chan struct{})

	go c.runStreamReader()

	log.Info("krpc client connected",
		zap.String("rpc_addr", cfg.rpcAddr()),
		zap.String("stream_addr", cfg.streamAddr()))
	return c, nil
}

func (c *Client) runStreamReader() {
	defer close(c.readerDone)
	err := c.stream.Run(func(update *schema.StreamUpdate) {
		for i := range update.Results {
			res := update.Results[i]
			c.registry.Insert(res.ID, &res.Result)
		}
	})
	c.streamBroken.Store(true)
	c.registry.BreakAll()
	if err != nil {
		c.log.Warn("stream reader terminated", zap.Error(err))
	}
}

// Close closes both connections. The background reader terminates on
// its own once the STREAM socket is closed out from under it.
func (c *Client) Close() error {
	var firstErr error
	if c.stream != nil {
		if err := c.stream.Close(); err != nil {
			firstErr = err
		}
		<-c.readerDone
	}
	if err := c.rpc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Call issues a single-call Request over the RPC connection and
// returns its Response. This is the sole function generated invokers
// go through.
func (c *Client) Call(call schema.ProcedureCall) (*schema.Response, error) {
	req := schema.NewRequest(call)
	resp, err := c.rpc.Call(&req)
	if err != nil {
		return nil, newConnectionError("call", err)
	}
	if resp.Error != nil {
		return nil, newErr(ErrKindProtocol, resp.Error.String(), nil)
	}
	return resp, nil
}

// ProcCall builds a ProcedureCall for service.procedure with the given
// pre-encoded positional arguments, in argument order. Generated
// call-builders use this rather than constructing schema.ProcedureCall
// directly so argument-position bookkeeping lives in one place.
func (c *Client) ProcCall(service, procedure string, args ...[]byte) schema.ProcedureCall {
	call := schema.ProcedureCall{Service: service, Procedure: procedure}
	for i, v := range args {
		call.Arguments = append(call.Arguments, schema.Argument{Position: uint32(i), Value: v})
	}
	return call
}

// result0 extracts the single result a single-call Request's Response
// carries, per the resolved "one call per request" contract.
func result0(resp *schema.Response) (*schema.ProcedureResult, error) {
	if len(resp.Results) == 0 {
		return nil, newProtocolError("response carried no results")
	}
	res := &resp.Results[0]
	if res.Error != nil {
		return nil, newErr(ErrKindProtocol, res.Error.String(), nil)
	}
	return res, nil
}

// CallDecode is the composition generated invokers use: call, unwrap
// the single result, decode its value with decode.
func CallDecode[T any](c *Client, call schema.ProcedureCall, decode func([]byte) (T, int, error)) (T, error) {
	var zero T
	resp, err := c.Call(call)
	if err != nil {
		return zero, err
	}
	res, err := result0(resp)
	if err != nil {
		return zero, err
	}
	if len(res.Value) == 0 {
		return zero, nil
	}
	v, _, err := decode(res.Value)
	if err != nil {
		return zero, newEncodingError("decode result", err)
	}
	return v, nil
}

// AddStream registers call as a server-side stream and blocks until the
// first push for it arrives, so that a freshly constructed Stream[T]'s
// Get never observes an empty cell. It is used by generated stream-
// openers, not called directly by applications.
func (c *Client) AddStream(call schema.ProcedureCall) (uint64, error) {
	if c.streamBroken.Load() {
		return 0, newConnectionError("AddStream", fmt.Errorf("stream reader terminated"))
	}
	if c.stream == nil {
		return 0, newClientError("AddStream", fmt.Errorf("client was constructed with RPCOnly"))
	}
	addCall := c.ProcCall("KRPC", "AddStream", encodeProcedureCallArg(call), EncodeBoolArg(false))
	resp, err := c.Call(addCall)
	if err != nil {
		return 0, err
	}
	res, err := result0(resp)
	if err != nil {
		return 0, err
	}
	id, _, err := DecodeUint64Arg(res.Value)
	if err != nil {
		return 0, newEncodingError("decode stream id", err)
	}
	c.registry.Wait(id) // await first value; see the doc comment above
	return id, nil
}

// SetStreamRate issues KRPC.SetStreamRate(id, hz). hz must be finite
// and > 0.
func (c *Client) SetStreamRate(id uint64, hz float32) error {
	if hz <= 0 || math.IsInf(float64(hz), 0) || math.IsNaN(float64(hz)) {
		return newEncodingError("SetStreamRate", fmt.Errorf("hz must be finite and > 0, got %v", hz))
	}
	call := c.ProcCall("KRPC", "SetStreamRate", EncodeUint64Arg(id), EncodeFloat32Arg(hz))
	_, err := c.Call(call)
	return err
}

// RemoveStream issues KRPC.RemoveStream(id) best-effort and deregisters
// id from the local registry regardless of whether the RPC succeeds.
func (c *Client) RemoveStream(id uint64) {
	defer c.registry.Remove(id)
	if c.stream == nil {
		return
	}
	call := c.ProcCall("KRPC", "RemoveStream", EncodeUint64Arg(id))
	if _, err := c.Call(call); err != nil {
		c.log.Debug("RemoveStream best-effort call failed", zap.Uint64("id", id), zap.Error(err))
	}
}

// StreamRead decodes the latest pushed value for id as T.
func StreamRead[T any](c *Client, id uint64, decode func([]byte) (T, int, error)) (T, error) {
	var zero T
	if c.streamBroken.Load() {
		return zero, newConnectionError("stream reader terminated", nil)
	}
	res, err := c.registry.Get(id)
	if err != nil {
		return zero, newEncodingError("stream has no value", err)
	}
	v, _, err := decode(res.Value)
	if err != nil {
		return zero, newEncodingError("decode stream value", err)
	}
	return v, nil
}

// StreamWait blocks until the next update for id. It returns an error
// if the stream reader has terminated, either before the call or while
// waiting.
func (c *Client) StreamWait(id uint64) error {
	if c.streamBroken.Load() {
		return newConnectionError("stream reader terminated", nil)
	}
	c.registry.Wait(id)
	if c.streamBroken.Load() {
		return newConnectionError("stream reader terminated", nil)
	}
	return nil
}
