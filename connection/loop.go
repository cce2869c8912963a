// File: connection/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event loop and readiness handlers.

package connection

import (
	"errors"
	"io"

	"github.com/momentics/hioload-fe/api"
	"github.com/momentics/hioload-fe/internal/transport"
	"github.com/momentics/hioload-fe/protocol"
	"github.com/momentics/hioload-fe/reactor"
)

const (
	readChunk = 64 << 10
	maxRecv   = 16 << 20
)

// Outcome tells the caller why Run returned.
type Outcome int

const (
	// OutcomeDone: the loop predicate turned false.
	OutcomeDone Outcome = iota
	// OutcomeCancelled: the cancellation source fired. The connection is
	// left as it was.
	OutcomeCancelled
	// OutcomeFailed: a terminal error closed the connection.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Run drives the connection while until returns true, or until cancelled
// or failed when until is nil. The error is api.ErrCancelled for
// OutcomeCancelled and the terminal error for OutcomeFailed. Running a
// Disconnected connection fails with api.ErrNotConnected without side
// effects.
func (c *Conn) Run(until func() bool) (Outcome, error) {
	lastCheck := c.now()
	for until == nil || until() {
		if c.cancel != nil && c.cancel.Cancelled() {
			c.log.Info("Stop requested")
			return OutcomeCancelled, api.ErrCancelled
		}
		if c.state == api.StateDisconnected {
			return OutcomeFailed, api.ErrNotConnected
		}
		if now := c.now(); now.Sub(lastCheck) >= c.livenessInterval {
			lastCheck = now
			if !c.IsAlive() {
				err := c.timeoutError()
				c.fail(err)
				return OutcomeFailed, err
			}
		}
		if err := c.poll(); err != nil {
			c.fail(err)
			return OutcomeFailed, err
		}
	}
	return OutcomeDone, nil
}

func (c *Conn) timeoutError() error {
	if c.state == api.StateConnecting {
		return api.NewError(api.KindTimeout, api.ErrConnectTimeout, "Timeout").
			WithContext("connect_timeout", c.cfg.ConnectTimeout.String())
	}
	return api.NewError(api.KindTimeout, api.ErrDataTimeout, "Timeout").
		WithContext("data_timeout", c.cfg.DataTimeout.String())
}

// poll waits once on the reactor and dispatches readiness.
func (c *Conn) poll() error {
	n, err := c.reactor.Wait(c.events, c.pollInterval)
	if err != nil {
		return api.NewError(api.KindConnection, api.ErrBroken, "Client socket broken").WithContext("cause", err.Error())
	}
	for _, ev := range c.events[:n] {
		if c.sock == nil || ev.Fd != c.sock.Fd() {
			continue
		}
		if ev.Readable {
			if err := c.onReadable(); err != nil {
				return err
			}
		}
		if ev.Writable {
			if err := c.onWritable(); err != nil {
				return err
			}
		}
		if ev.Failed {
			return api.NewError(api.KindConnection, api.ErrBroken, "Client socket broken")
		}
	}
	return nil
}

func (c *Conn) onReadable() error {
	switch {
	case c.connecting:
		return nil
	case c.hs != nil:
		return c.handshake()
	}
	got := 0
	for {
		free := c.rbuf.Reserve(readChunk)
		if len(free) > maxRecv {
			free = free[:maxRecv]
		}
		n, err := c.tr.Recv(free)
		if n > 0 {
			c.rbuf.Commit(n)
			got += n
		}
		if err != nil {
			switch {
			case errors.Is(err, api.ErrWouldBlock):
			case errors.Is(err, api.ErrWantRead):
				if err := c.setInterest(c.interest | reactor.InterestRead); err != nil {
					return err
				}
			case errors.Is(err, api.ErrWantWrite):
				if err := c.setInterest(c.interest | reactor.InterestWrite); err != nil {
					return err
				}
			case errors.Is(err, io.EOF), transport.IsBroken(err):
				return api.NewError(api.KindConnection, api.ErrBroken, "Connection broken")
			default:
				return api.NewError(api.KindConnection, api.ErrBroken, "Connection broken").WithContext("cause", err.Error())
			}
			break
		}
		// A full buffer may leave decrypted bytes behind that the reactor
		// will not report again.
		if n < len(free) {
			break
		}
	}
	if got == 0 {
		return nil
	}
	c.bytesReceived += uint64(got)
	c.metrics.Received(got)
	c.lastActivity = c.now()
	c.log.Debug("Read bytes", "bytes", got, "buffered", c.rbuf.Len())
	if err := c.parse(); err != nil {
		return err
	}
	// Alerts or renegotiation records may have queued ciphertext.
	return c.updateInterest()
}

// parse consumes every complete frame in the read buffer.
func (c *Conn) parse() error {
	for {
		resp, n, err := protocol.ParseResponse(c.rbuf.Bytes())
		if err != nil {
			return err
		}
		if resp == nil {
			return nil
		}
		c.rbuf.Advance(n)
		c.lastActivity = c.now()
		results := resp.Results()
		c.frames++
		c.results += uint64(len(results))
		c.metrics.Frame(len(results))
		c.log.Debug("Frame", "bytes", n, "results", len(results),
			"http_request_id", resp.Header[protocol.HeaderHTTPRequestID])
		for _, r := range results {
			c.handler.HandleResult(r)
		}
	}
}

func (c *Conn) onWritable() error {
	switch {
	case c.connecting:
		return c.finishConnect()
	case c.hs != nil:
		return c.handshake()
	}
	return c.flush()
}

// flush performs one gathered send of the write queue.
func (c *Conn) flush() error {
	if c.wq.Empty() && !c.tr.Pending() {
		return c.updateInterest()
	}
	n, err := c.tr.Send(c.wq.Buffers())
	if n > 0 {
		c.wq.Discard(n)
		c.bytesSent += uint64(n)
		c.metrics.Sent(n)
		c.lastActivity = c.now()
		c.log.Debug("Sent bytes", "bytes", n, "pending", c.wq.Len())
	}
	switch {
	case err == nil:
	case errors.Is(err, api.ErrWantRead):
		return c.setInterest(c.interest | reactor.InterestRead)
	case api.IsTemporary(err):
	case transport.IsBroken(err):
		return api.NewError(api.KindConnection, api.ErrBroken, "Connection broken")
	default:
		return api.NewError(api.KindConnection, api.ErrBroken, "Connection broken").WithContext("cause", err.Error())
	}
	return c.updateInterest()
}
