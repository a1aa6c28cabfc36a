package transport

import (
	"bufio"
	"fmt"
	"net"
	"sync"

	"github.com/kladd/krpc-client/internal/schema"
)

// RPCConn is the request/reply socket: exclusive per call, responses
// read immediately after their request, matching the teacher's
// ClientCodec discipline of one write then one read per RPC.
type RPCConn struct {
	conn net.Conn
	r    *bufio.Reader

	mu         sync.Mutex
	maxFrame   int
}

// DialRPC opens the RPC connection and performs its handshake,
// returning the server-assigned client identifier.
func DialRPC(addr, clientName string) (*RPCConn, []byte, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: dial rpc: %w", err)
	}
	c := &RPCConn{conn: conn, r: bufio.NewReader(conn), maxFrame: DefaultMaxFrameLength}

	req := &schema.ConnectionRequest{Type: schema.ConnectionTypeRPC, ClientName: clientName}
	resp, err := c.handshake(req)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	if resp.Status != schema.ConnectionStatusOK {
		conn.Close()
		return nil, nil, fmt.Errorf("transport: rpc handshake status %v: %s", resp.Status, resp.Message)
	}
	return c, resp.ClientIdentifier, nil
}

func (c *RPCConn) handshake(req *schema.ConnectionRequest) (*schema.ConnectionResponse, error) {
	buf, err := req.Marshal()
	if err != nil {
		return nil, fmt.Errorf("transport: encode handshake: %w", err)
	}
	if err := writeFrame(c.conn, buf); err != nil {
		return nil, fmt.Errorf("transport: write handshake: %w", err)
	}
	frame, err := readFrame(c.r, c.maxFrame)
	if err != nil {
		return nil, fmt.Errorf("transport: read handshake: %w", err)
	}
	var resp schema.ConnectionResponse
	if err := resp.Unmarshal(frame); err != nil {
		return nil, fmt.Errorf("transport: decode handshake: %w", err)
	}
	return &resp, nil
}

// Call sends req and returns the single response, holding the
// connection's mutex for the round trip. At most one call is ever in
// flight on a given RPCConn.
func (c *RPCConn) Call(req *schema.Request) (*schema.Response, error) {
	buf, err := req.Marshal()
	if err != nil {
		return nil, fmt.Errorf("transport: encode request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeFrame(c.conn, buf); err != nil {
		return nil, fmt.Errorf("transport: write request: %w", err)
	}
	frame, err := readFrame(c.r, c.maxFrame)
	if err != nil {
		return nil, fmt.Errorf("transport: read response: %w", err)
	}
	var resp schema.Response
	if err := resp.Unmarshal(frame); err != nil {
		return nil, fmt.Errorf("transport: decode response: %w", err)
	}
	return &resp, nil
}

// Close closes the underlying connection.
func (c *RPCConn) Close() error {
	return c.conn.Close()
}
