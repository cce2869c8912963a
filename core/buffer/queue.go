// Package buffer
//
// Queue is the send side: a deque of outbound chunks drained by gathered
// writes, so partially sent payloads are tracked by offset and never copied.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package buffer

import "github.com/eapache/queue"

// maxIovecs bounds the number of chunks handed to one gathered send.
const maxIovecs = 64

// Queue holds pending outbound chunks in order.
type Queue struct {
	chunks *queue.Queue
	offset int // bytes of the head chunk already sent
	size   int // unsent bytes across all chunks
	iov    [][]byte
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{chunks: queue.New()}
}

// Push appends chunks. Empty chunks are ignored. The queue keeps the slices;
// callers must not modify them afterwards.
func (q *Queue) Push(chunks ...[]byte) {
	for _, c := range chunks {
		if len(c) == 0 {
			continue
		}
		q.chunks.Add(c)
		q.size += len(c)
	}
}

// Len reports unsent bytes.
func (q *Queue) Len() int { return q.size }

// Empty reports whether nothing is pending.
func (q *Queue) Empty() bool { return q.size == 0 }

// Buffers returns up to maxIovecs pending chunks, the head one trimmed by
// the sent offset. The result is valid until the next Discard or Push.
func (q *Queue) Buffers() [][]byte {
	q.iov = q.iov[:0]
	n := q.chunks.Length()
	if n > maxIovecs {
		n = maxIovecs
	}
	for i := 0; i < n; i++ {
		c := q.chunks.Get(i).([]byte)
		if i == 0 {
			c = c[q.offset:]
		}
		q.iov = append(q.iov, c)
	}
	return q.iov
}

// Discard drops n sent bytes from the front.
func (q *Queue) Discard(n int) {
	if n < 0 || n > q.size {
		panic("buffer: discard out of range")
	}
	q.size -= n
	for n > 0 {
		head := q.chunks.Peek().([]byte)
		left := len(head) - q.offset
		if n < left {
			q.offset += n
			return
		}
		n -= left
		q.chunks.Remove()
		q.offset = 0
	}
}

// Reset drops everything.
func (q *Queue) Reset() {
	q.chunks = queue.New()
	q.offset = 0
	q.size = 0
	q.iov = nil
}
