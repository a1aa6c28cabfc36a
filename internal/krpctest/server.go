// Package krpctest provides an in-process fake kRPC server used to
// exercise the real wire framing and handshake deterministically,
// without a live game server. It mirrors, in miniature, what the
// Stream monotonicity / RPC ordering properties in SPEC_FULL.md §8
// require: correct per-connection framing and scripted, deterministic
// responses.
package krpctest

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/kladd/krpc-client/internal/schema"
)

// Handler answers one ProcedureCall with a ProcedureResult. Tests
// supply a Handler that echoes known arguments deterministically.
type Handler func(call schema.ProcedureCall) schema.ProcedureResult

// Server is a fake kRPC server: one RPC listener, one STREAM listener,
// a scripted Handler, and a manual stream-push API for driving
// StreamUpdate delivery from test code.
type Server struct {
	rpcLn    net.Listener
	streamLn net.Listener
	handler  Handler

	mu          sync.Mutex
	streamConns []net.Conn
}

// Start launches both listeners on loopback ports and begins accepting
// connections. Callers must call Close when done.
func Start(handler Handler) (*Server, error) {
	rpcLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	streamLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		rpcLn.Close()
		return nil, err
	}
	s := &Server{rpcLn: rpcLn, streamLn: streamLn, handler: handler}
	go s.acceptRPC()
	go s.acceptStream()
	return s, nil
}

// RPCAddr and StreamAddr return the listener addresses for client
// configuration.
func (s *Server) RPCAddr() string    { return s.rpcLn.Addr().String() }
func (s *Server) StreamAddr() string { return s.streamLn.Addr().String() }

func (s *Server) acceptRPC() {
	for {
		conn, err := s.rpcLn.Accept()
		if err != nil {
			return
		}
		go s.serveRPC(conn)
	}
}

func (s *Server) serveRPC(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)

	frame, err := readFrame(r)
	if err != nil {
		return
	}
	var req schema.ConnectionRequest
	if err := req.Unmarshal(frame); err != nil {
		return
	}
	resp := schema.ConnectionResponse{Status: schema.ConnectionStatusOK, ClientIdentifier: []byte{1, 2, 3, 4}}
	body, _ := resp.Marshal()
	if writeFrame(conn, body) != nil {
		return
	}

	for {
		frame, err := readFrame(r)
		if err != nil {
			return
		}
		var request schema.Request
		if err := request.Unmarshal(frame); err != nil {
			return
		}
		response := schema.Response{}
		for _, call := range request.Calls {
			response.Results = append(response.Results, s.handler(call))
		}
		body, err := response.Marshal()
		if err != nil {
			return
		}
		if writeFrame(conn, body) != nil {
			return
		}
	}
}

func (s *Server) acceptStream() {
	for {
		conn, err := s.streamLn.Accept()
		if err != nil {
			return
		}
		go s.serveStream(conn)
	}
}

func (s *Server) serveStream(conn net.Conn) {
	r := bufio.NewReader(conn)
	frame, err := readFrame(r)
	if err != nil {
		conn.Close()
		return
	}
	var req schema.ConnectionRequest
	if err := req.Unmarshal(frame); err != nil {
		conn.Close()
		return
	}
	resp := schema.ConnectionResponse{Status: schema.ConnectionStatusOK}
	body, _ := resp.Marshal()
	if writeFrame(conn, body) != nil {
		conn.Close()
		return
	}

	s.mu.Lock()
	s.streamConns = append(s.streamConns, conn)
	s.mu.Unlock()

	// Keep the connection open (read-only from the client's side); a
	// read here just detects client disconnect.
	io.Copy(io.Discard, r)
}

// Push sends a StreamUpdate to every connected STREAM client.
func (s *Server) Push(update schema.StreamUpdate) error {
	body, err := update.Marshal()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.streamConns {
		if err := writeFrame(c, body); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down both listeners and every accepted STREAM
// connection. Accepted RPC connections are not tracked and stay open
// until the client closes them.
func (s *Server) Close() error {
	s.mu.Lock()
	for _, c := range s.streamConns {
		c.Close()
	}
	s.mu.Unlock()
	err1 := s.rpcLn.Close()
	err2 := s.streamLn.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func writeFrame(w io.Writer, msg []byte) error {
	lenBuf := protowire.AppendVarint(nil, uint64(len(msg)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}
	_, err := w.Write(msg)
	return err
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	var size uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		size |= uint64(b&0x7f) << shift
		if b < 0x80 {
			break
		}
		shift += 7
		if shift >= 64 {
			return nil, fmt.Errorf("krpctest: varint overflow")
		}
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
