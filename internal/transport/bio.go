// File: internal/transport/bio.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// In-memory ciphertext pipe placed between crypto/tls and the non-blocking
// socket. The event loop feeds received ciphertext in and drains produced
// ciphertext out; crypto/tls only ever sees this net.Conn.

package transport

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"
)

// wouldBlockError is returned by bio reads once the session is established
// and no ciphertext is buffered. crypto/tls treats temporary net.Errors as
// resumable and keeps partial records for the next Read.
type wouldBlockError struct{}

func (wouldBlockError) Error() string   { return "bio: would block" }
func (wouldBlockError) Timeout() bool   { return true }
func (wouldBlockError) Temporary() bool { return true }

type bioAddr struct{}

func (bioAddr) Network() string { return "bio" }
func (bioAddr) String() string  { return "bio" }

// bio is a net.Conn backed by two byte buffers.
//
// While blocking is set (during the handshake) a Read on an empty input
// buffer parks the caller until input arrives; parked/finished let the event
// loop wait for the handshake goroutine to become quiescent, so the two
// never run at the same time.
type bio struct {
	mu   sync.Mutex
	cond *sync.Cond

	in  bytes.Buffer
	out bytes.Buffer

	blocking bool
	parked   bool
	finished bool
	eof      bool
	result   error
}

var _ net.Conn = (*bio)(nil)

func newBIO() *bio {
	b := &bio{blocking: true}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Read implements net.Conn for crypto/tls.
func (b *bio) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.in.Len() == 0 {
		if b.eof {
			return 0, io.EOF
		}
		if !b.blocking {
			return 0, wouldBlockError{}
		}
		b.parked = true
		b.cond.Broadcast()
		b.cond.Wait()
	}
	b.parked = false
	return b.in.Read(p)
}

// Write implements net.Conn for crypto/tls. It never blocks.
func (b *bio) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.eof {
		return 0, io.ErrClosedPipe
	}
	return b.out.Write(p)
}

// Close wakes a parked reader with EOF.
func (b *bio) Close() error {
	b.mu.Lock()
	b.eof = true
	b.parked = false
	b.cond.Broadcast()
	b.mu.Unlock()
	return nil
}

func (b *bio) LocalAddr() net.Addr              { return bioAddr{} }
func (b *bio) RemoteAddr() net.Addr             { return bioAddr{} }
func (b *bio) SetDeadline(time.Time) error      { return nil }
func (b *bio) SetReadDeadline(time.Time) error  { return nil }
func (b *bio) SetWriteDeadline(time.Time) error { return nil }

// feed appends received ciphertext and wakes a parked reader.
func (b *bio) feed(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	b.in.Write(p)
	b.parked = false
	b.cond.Broadcast()
	b.mu.Unlock()
}

// settle blocks until the handshake goroutine is parked on input or done.
func (b *bio) settle() (finished bool, result error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for !b.parked && !b.finished {
		b.cond.Wait()
	}
	return b.finished, b.result
}

// finish records the handshake outcome and switches reads to non-blocking.
func (b *bio) finish(err error) {
	b.mu.Lock()
	b.finished = true
	b.result = err
	b.blocking = false
	b.cond.Broadcast()
	b.mu.Unlock()
}

// pending returns the ciphertext waiting to be sent.
func (b *bio) pending() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.Bytes()
}

// drain drops n bytes of sent ciphertext.
func (b *bio) drain(n int) {
	b.mu.Lock()
	b.out.Next(n)
	b.mu.Unlock()
}

func (b *bio) hasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.Len() > 0
}
