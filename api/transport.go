// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the transport capability used by the connection event loop so it
// stays agnostic of plain versus TLS-wrapped sockets.

package api

// Transport is a non-blocking, connected byte stream bound to one descriptor.
//
// Recv and Send never block. They report ErrWouldBlock when the descriptor is
// not ready, ErrWantRead/ErrWantWrite when the transport needs the opposite
// readiness first, io.EOF when the peer closed the stream, and a terminal
// error otherwise.
type Transport interface {
	// Fd returns the descriptor registered with the reactor.
	Fd() int

	// Recv reads available bytes into p.
	Recv(p []byte) (int, error)

	// Send writes as much of bufs as possible in one gathered call and
	// returns the number of payload bytes accepted.
	Send(bufs [][]byte) (int, error)

	// Pending reports whether the transport itself still holds bytes that
	// must be flushed before the socket is write-idle.
	Pending() bool

	// Close releases the descriptor and any session state.
	Close() error
}

// Handshaker is implemented by transports that need session setup after the
// raw connect completes. Handshake returns nil once the session is ready,
// ErrWantRead or ErrWantWrite while pending, and a terminal error on failure.
type Handshaker interface {
	Handshake() error
}
