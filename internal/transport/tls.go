// File: internal/transport/tls.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TLS handshake adapter: upgrades a connected non-blocking socket to a
// crypto/tls client session driven from readiness events.

package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/momentics/hioload-fe/api"
)

// recvChunk bounds a single ciphertext read from the socket.
const recvChunk = 64 << 10

// TLSTransport wraps a raw transport with a TLS 1.2 client session.
type TLSTransport struct {
	raw  api.Transport
	bio  *bio
	conn *tls.Conn

	started     bool
	established bool
	startedAt   time.Time
	elapsed     time.Duration
	scratch     []byte
}

var (
	_ api.Transport  = (*TLSTransport)(nil)
	_ api.Handshaker = (*TLSTransport)(nil)
)

// NewTLSTransport wraps raw. cfg must already carry ServerName and the
// cipher policy; see ClientConfig.
func NewTLSTransport(raw api.Transport, cfg *tls.Config) *TLSTransport {
	b := newBIO()
	return &TLSTransport{
		raw:  raw,
		bio:  b,
		conn: tls.Client(b, cfg),
	}
}

// Fd returns the underlying socket descriptor.
func (t *TLSTransport) Fd() int { return t.raw.Fd() }

// Handshake advances the handshake by one readiness step.
func (t *TLSTransport) Handshake() error {
	if t.established {
		return nil
	}
	if !t.started {
		t.started = true
		t.startedAt = time.Now()
		go t.run()
	}
	for {
		finished, result := t.bio.settle()
		if err := t.flush(); err != nil {
			return handshakeError(err)
		}
		if t.bio.hasPending() {
			return api.ErrWantWrite
		}
		if finished {
			if result != nil {
				return handshakeError(result)
			}
			t.established = true
			t.elapsed = time.Since(t.startedAt)
			return nil
		}
		// Parked on input: hand it whatever the socket has.
		switch err := t.Pull(); {
		case err == nil:
			continue
		case errors.Is(err, api.ErrWouldBlock):
			return api.ErrWantRead
		default:
			_ = t.bio.Close()
			return handshakeError(err)
		}
	}
}

func handshakeError(cause error) error {
	return api.NewError(api.KindTLS, api.ErrHandshake, "SSL handshake error").WithContext("cause", cause.Error())
}

// run executes the blocking crypto/tls handshake against the bio. It only
// makes progress while the event loop is parked in bio.settle.
func (t *TLSTransport) run() {
	t.bio.finish(t.conn.Handshake())
}

// HandshakeDuration returns how long the completed handshake took.
func (t *TLSTransport) HandshakeDuration() time.Duration { return t.elapsed }

// ConnectionState exposes the negotiated session parameters.
func (t *TLSTransport) ConnectionState() tls.ConnectionState {
	return t.conn.ConnectionState()
}

// Pull reads ciphertext from the socket into the session. During the
// handshake it is the read half of a handshake step.
func (t *TLSTransport) Pull() error {
	if t.scratch == nil {
		t.scratch = make([]byte, recvChunk)
	}
	n, err := t.raw.Recv(t.scratch)
	if n > 0 {
		t.bio.feed(t.scratch[:n])
	}
	if errors.Is(err, io.EOF) {
		_ = t.bio.Close()
	}
	return err
}

// Recv pulls available ciphertext and returns decrypted bytes.
func (t *TLSTransport) Recv(p []byte) (int, error) {
	pullErr := t.Pull()
	if pullErr != nil && !errors.Is(pullErr, api.ErrWouldBlock) && !errors.Is(pullErr, io.EOF) {
		return 0, pullErr
	}
	total := 0
	for total < len(p) {
		n, err := t.conn.Read(p[total:])
		total += n
		if err != nil {
			var nerr interface{ Temporary() bool }
			if errors.As(err, &nerr) && nerr.Temporary() {
				break
			}
			if total > 0 {
				// Deliver what we have; the error resurfaces on the next call.
				return total, nil
			}
			return 0, err
		}
		if n == 0 {
			break
		}
	}
	// Alerts produced while reading must still reach the peer.
	if err := t.flush(); err != nil {
		return total, err
	}
	if total == 0 {
		if errors.Is(pullErr, io.EOF) {
			return 0, io.EOF
		}
		return 0, api.ErrWouldBlock
	}
	return total, nil
}

// Send encrypts bufs into the session and flushes as much ciphertext as the
// socket accepts. Plaintext is accepted only when no older ciphertext is
// waiting, so the write queue keeps ownership of unsent application data.
func (t *TLSTransport) Send(bufs [][]byte) (int, error) {
	if err := t.flush(); err != nil {
		return 0, err
	}
	if t.bio.hasPending() {
		return 0, api.ErrWouldBlock
	}
	total := 0
	for _, b := range bufs {
		n, err := t.conn.Write(b)
		total += n
		if err != nil {
			return total, fmt.Errorf("tls write: %w", err)
		}
	}
	if err := t.flush(); err != nil {
		return total, err
	}
	return total, nil
}

// flush pushes buffered ciphertext to the socket without blocking.
func (t *TLSTransport) flush() error {
	for {
		out := t.bio.pending()
		if len(out) == 0 {
			return nil
		}
		n, err := t.raw.Send([][]byte{out})
		if n > 0 {
			t.bio.drain(n)
		}
		if errors.Is(err, api.ErrWouldBlock) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Pending reports ciphertext that has not reached the socket yet.
func (t *TLSTransport) Pending() bool { return t.bio.hasPending() }

// Close tears down the session and the socket. No close_notify is sent:
// the socket is non-blocking and the peer sees the FIN anyway.
func (t *TLSTransport) Close() error {
	_ = t.bio.Close()
	return t.raw.Close()
}
