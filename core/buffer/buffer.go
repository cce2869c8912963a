// Package buffer provides the byte containers owned by a connection.
//
// Buffer is the receive side: a growable slice with a read cursor that is
// compacted lazily instead of re-slicing on every consume.
// Designed for single-goroutine use; no locks for minimal overhead.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

const minReserve = 4 << 10

// Buffer accumulates inbound bytes; consumed bytes are skipped by cursor.
type Buffer struct {
	buf []byte
	r   int // start of unread data
	w   int // end of unread data
}

// Bytes returns the unread bytes. The slice is valid until the next
// Reserve, Commit or Reset.
func (b *Buffer) Bytes() []byte { return b.buf[b.r:b.w] }

// Len reports the number of unread bytes.
func (b *Buffer) Len() int { return b.w - b.r }

// Reserve returns free space of at least n bytes after the unread data,
// compacting or growing the backing array when needed.
func (b *Buffer) Reserve(n int) []byte {
	if n < minReserve {
		n = minReserve
	}
	if len(b.buf)-b.w >= n {
		return b.buf[b.w:]
	}
	unread := b.w - b.r
	if b.r > 0 && len(b.buf)-unread >= n {
		copy(b.buf, b.buf[b.r:b.w])
		b.r, b.w = 0, unread
		return b.buf[b.w:]
	}
	size := 2 * len(b.buf)
	if size < unread+n {
		size = unread + n
	}
	grown := make([]byte, size)
	copy(grown, b.buf[b.r:b.w])
	b.buf = grown
	b.r, b.w = 0, unread
	return b.buf[b.w:]
}

// Commit marks n bytes of the last Reserve result as written.
func (b *Buffer) Commit(n int) {
	if n < 0 || b.w+n > len(b.buf) {
		panic("buffer: commit out of range")
	}
	b.w += n
}

// Write appends p.
func (b *Buffer) Write(p []byte) (int, error) {
	n := copy(b.Reserve(len(p)), p)
	b.Commit(n)
	return n, nil
}

// Advance consumes n unread bytes.
func (b *Buffer) Advance(n int) {
	if n < 0 || n > b.Len() {
		panic("buffer: advance out of range")
	}
	b.r += n
	if b.r == b.w {
		b.r, b.w = 0, 0
	}
}

// Reset drops all data and releases the backing array.
func (b *Buffer) Reset() {
	b.buf = nil
	b.r, b.w = 0, 0
}
