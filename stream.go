package krpc

// Stream is a typed handle over a server-pushed value. It holds only a
// stream id and a reference up to the owning Client — the registry
// never references the handle back, so there is no ownership cycle.
// Go has no destructors, so unlike the source's Drop-based
// cancellation, callers must call Close explicitly (deliberately not
// using runtime.SetFinalizer: finalizers run at an unspecified time
// relative to last use, which would make RemoveStream's delivery
// timing non-deterministic).
type Stream[T any] struct {
	client *Client
	id     uint64
	decode func([]byte) (T, int, error)
}

// NewStream wraps an already-registered stream id. Generated stream-
// openers call this after Client.AddStream has returned (and thus
// after the first push has already landed).
func NewStream[T any](c *Client, id uint64, decode func([]byte) (T, int, error)) *Stream[T] {
	return &Stream[T]{client: c, id: id, decode: decode}
}

// Get decodes the latest pushed value as T.
func (s *Stream[T]) Get() (T, error) {
	return StreamRead(s.client, s.id, s.decode)
}

// Wait blocks until the next update for this stream.
func (s *Stream[T]) Wait() error {
	return s.client.StreamWait(s.id)
}

// SetRate issues SetStreamRate(id, hz). hz must be finite and > 0.
func (s *Stream[T]) SetRate(hz float32) error {
	return s.client.SetStreamRate(s.id, hz)
}

// Close issues RemoveStream(id) best-effort and deregisters the id.
// A second call sends RemoveStream again; any error from it is
// swallowed like the first.
func (s *Stream[T]) Close() {
	s.client.RemoveStream(s.id)
}
