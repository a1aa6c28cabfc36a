package transport

import (
	"bufio"
	"fmt"
	"net"

	"go.uber.org/atomic"

	"github.com/kladd/krpc-client/internal/schema"
)

// StreamConn is the read-only-after-handshake socket the server pushes
// StreamUpdate messages on. A single background reader owns it; see
// Run.
type StreamConn struct {
	conn     net.Conn
	r        *bufio.Reader
	maxFrame int

	broken atomic.Bool
}

// DialStream opens the STREAM connection and performs its handshake
// using the client identifier obtained from the RPC handshake.
func DialStream(addr, clientName string, clientIdentifier []byte) (*StreamConn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial stream: %w", err)
	}
	c := &StreamConn{conn: conn, r: bufio.NewReader(conn), maxFrame: DefaultMaxFrameLength}

	req := &schema.ConnectionRequest{
		Type:             schema.ConnectionTypeStream,
		ClientName:       clientName,
		ClientIdentifier: clientIdentifier,
	}
	buf, err := req.Marshal()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: encode stream handshake: %w", err)
	}
	if err := writeFrame(conn, buf); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: write stream handshake: %w", err)
	}
	frame, err := readFrame(c.r, c.maxFrame)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: read stream handshake: %w", err)
	}
	var resp schema.ConnectionResponse
	if err := resp.Unmarshal(frame); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: decode stream handshake: %w", err)
	}
	if resp.Status != schema.ConnectionStatusOK {
		conn.Close()
		return nil, fmt.Errorf("transport: stream handshake status %v: %s", resp.Status, resp.Message)
	}
	return c, nil
}

// Run drives the perpetual read loop: read one framed StreamUpdate,
// invoke onUpdate, repeat. It returns when the socket errors (including
// a clean EOF on disconnect), marking the connection broken first. The
// loop never blocks on onUpdate for longer than onUpdate itself takes —
// callers must make onUpdate wait-free (see internal/registry.Registry.Insert).
func (c *StreamConn) Run(onUpdate func(*schema.StreamUpdate)) error {
	for {
		frame, err := readFrame(c.r, c.maxFrame)
		if err != nil {
			c.broken.Store(true)
			return fmt.Errorf("transport: stream read: %w", err)
		}
		var update schema.StreamUpdate
		if err := update.Unmarshal(frame); err != nil {
			c.broken.Store(true)
			return fmt.Errorf("transport: stream decode: %w", err)
		}
		onUpdate(&update)
	}
}

// Broken reports whether the read loop has terminated due to an error.
func (c *StreamConn) Broken() bool {
	return c.broken.Load()
}

// Close closes the underlying connection, unblocking Run's pending
// read.
func (c *StreamConn) Close() error {
	return c.conn.Close()
}
