// File: connection/connection.go
// Package connection implements the keep-alive client connection state machine.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Conn owns one non-blocking socket, its reactor registration, the read
// buffer, the write queue and, when enabled, the TLS session. It is driven
// by a single goroutine; no method may be called concurrently.

package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/momentics/hioload-fe/api"
	"github.com/momentics/hioload-fe/control"
	"github.com/momentics/hioload-fe/core/buffer"
	"github.com/momentics/hioload-fe/internal/transport"
	"github.com/momentics/hioload-fe/protocol"
	"github.com/momentics/hioload-fe/reactor"
)

// Conn is a single keep-alive connection to the command endpoint.
type Conn struct {
	cfg     Config
	handler api.ResultHandler
	reactor reactor.EventReactor
	writer  *protocol.RequestWriter

	log              *slog.Logger
	metrics          *control.Metrics
	cancel           api.CancelSource
	tlsBase          *tls.Config
	pollInterval     time.Duration
	livenessInterval time.Duration
	now              func() time.Time

	state      api.State
	sock       *transport.Socket
	tr         api.Transport
	hs         api.Handshaker // non-nil while the TLS handshake runs
	connecting bool           // raw connect still in progress
	interest   reactor.Interest
	rbuf       buffer.Buffer
	wq         *buffer.Queue

	connectStart time.Time
	connectedAt  time.Time
	lastActivity time.Time

	events []reactor.Event

	bytesSent     uint64
	bytesReceived uint64
	frames        uint64
	results       uint64
}

// New creates a disconnected Conn and its reactor. Results are delivered
// to h from inside Run.
func New(cfg Config, h api.ResultHandler, opts ...Option) (*Conn, error) {
	if cfg.Host == "" {
		return nil, errors.New("connection: empty host")
	}
	if cfg.Port == 0 {
		cfg.Port = 80
		if cfg.TLS {
			cfg.Port = 443
		}
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = control.DefaultConnectTimeout
	}
	if cfg.DataTimeout <= 0 {
		cfg.DataTimeout = control.DefaultDataTimeout
	}
	if h == nil {
		h = api.ResultHandlerFunc(func(api.Result) {})
	}
	w, err := protocol.NewRequestWriter(cfg.Host, cfg.Port, cfg.UserAgent, cfg.Compression)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		cfg:              cfg,
		handler:          h,
		writer:           w,
		log:              control.Named(nil, "client.socket"),
		pollInterval:     DefaultPollInterval,
		livenessInterval: DefaultLivenessInterval,
		now:              time.Now,
		wq:               buffer.NewQueue(),
		events:           make([]reactor.Event, 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	r, err := reactor.NewReactor()
	if err != nil {
		return nil, err
	}
	c.reactor = r
	c.log.Info("Initialized", "endpoint", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), "tls", cfg.TLS, "compression", cfg.Compression)
	return c, nil
}

// Connect opens the connection and runs the loop until it is established.
// It is a no-op unless the connection is Disconnected. The result is nil,
// api.ErrCancelled, or the terminal *api.Error that closed the connection.
func (c *Conn) Connect() error {
	if c.state != api.StateDisconnected {
		return nil
	}
	if err := c.open(); err != nil {
		c.fail(err)
		return err
	}
	_, err := c.Run(func() bool { return c.state == api.StateConnecting })
	return err
}

func (c *Conn) open() error {
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	c.log.Info("Connecting to " + addr)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	ip, err := transport.Resolve(ctx, c.cfg.Host)
	cancel()
	if err != nil {
		return api.NewError(api.KindConnection, api.ErrResolve, "Connection failed").WithContext("cause", err.Error())
	}
	sock, err := transport.NewSocket(ip, c.cfg.Port)
	if err != nil {
		return api.NewError(api.KindConnection, api.ErrRefused, "Connection failed").WithContext("cause", err.Error())
	}
	if err := c.reactor.Register(sock.Fd(), reactor.InterestWrite); err != nil {
		_ = sock.Close()
		return api.NewError(api.KindConnection, api.ErrRefused, "Connection failed").WithContext("cause", err.Error())
	}
	c.sock = sock
	c.tr = sock
	c.interest = reactor.InterestWrite
	c.state = api.StateConnecting
	c.connecting = true
	c.connectStart = c.now()
	c.metrics.State(int(c.state))
	c.log.Info("Socket created", "fd", sock.Fd())

	switch err := sock.Connect(); {
	case err == nil:
		return c.rawConnected()
	case errors.Is(err, api.ErrWouldBlock):
		return nil
	default:
		return connectError(err)
	}
}

// finishConnect resolves a pending connect once the socket is writable.
func (c *Conn) finishConnect() error {
	if err := c.sock.ConnectResult(); err != nil {
		return connectError(err)
	}
	return c.rawConnected()
}

func connectError(err error) error {
	if transport.IsRefused(err) {
		return api.NewError(api.KindConnection, api.ErrRefused, "Connection refused")
	}
	return api.Errorf(api.KindConnection, api.ErrRefused, "Connection failed: %v", err)
}

func (c *Conn) rawConnected() error {
	c.connecting = false
	c.tr = transport.Upgrade(c.sock, c.cfg.Host, c.cfg.TLS, c.tlsBase)
	if hs, ok := c.tr.(api.Handshaker); ok {
		c.log.Debug("SSL handshake")
		c.hs = hs
		return c.handshake()
	}
	return c.established(0)
}

// handshake advances the TLS handshake by one step.
func (c *Conn) handshake() error {
	err := c.hs.Handshake()
	switch {
	case err == nil:
		var elapsed time.Duration
		if t, ok := c.hs.(*transport.TLSTransport); ok {
			elapsed = t.HandshakeDuration()
		}
		c.hs = nil
		return c.established(elapsed)
	case errors.Is(err, api.ErrWantRead):
		return c.setInterest(reactor.InterestRead)
	case errors.Is(err, api.ErrWantWrite):
		return c.setInterest(reactor.InterestWrite)
	default:
		return err
	}
}

func (c *Conn) established(tlsElapsed time.Duration) error {
	now := c.now()
	total := now.Sub(c.connectStart)
	c.state = api.StateConnected
	c.connectedAt = now
	c.lastActivity = now
	c.metrics.State(int(c.state))
	c.metrics.Connected(total, tlsElapsed)
	if c.cfg.TLS {
		c.log.Info(fmt.Sprintf("Connected in %.3f sec [TLS: %.3f sec]", total.Seconds(), tlsElapsed.Seconds()))
	} else {
		c.log.Info(fmt.Sprintf("Connected in %.3f sec", total.Seconds()))
	}
	return c.updateInterest()
}

// Close releases the socket and session and resets the connection to
// Disconnected. Calling it again is a no-op.
func (c *Conn) Close() {
	if c.sock == nil {
		return
	}
	if err := c.reactor.Unregister(c.sock.Fd()); err != nil {
		c.log.Debug("unregister failed", "error", err)
	}
	if err := c.tr.Close(); err != nil {
		c.log.Debug("close failed", "error", err)
	}
	c.reset()
	c.metrics.State(int(c.state))
	c.log.Info("Closed")
}

func (c *Conn) reset() {
	c.state = api.StateDisconnected
	c.sock = nil
	c.tr = nil
	c.hs = nil
	c.connecting = false
	c.interest = reactor.InterestNone
	c.rbuf.Reset()
	c.wq.Reset()
	c.connectStart = time.Time{}
	c.connectedAt = time.Time{}
	c.lastActivity = time.Time{}
}

// Shutdown closes the connection and releases the reactor.
func (c *Conn) Shutdown() error {
	c.Close()
	return c.reactor.Close()
}

// IsAlive reports whether the connection is within its timeouts.
func (c *Conn) IsAlive() bool {
	switch c.state {
	case api.StateConnecting:
		return c.now().Sub(c.connectStart) <= c.cfg.ConnectTimeout
	case api.StateConnected:
		return c.now().Sub(c.lastActivity) <= c.cfg.DataTimeout
	default:
		return false
	}
}

// IsConnected reports whether the connection is established.
func (c *Conn) IsConnected() bool { return c.state == api.StateConnected }

// State returns the lifecycle state.
func (c *Conn) State() api.State { return c.state }

// Send queues one request. payload is retained until written and must not
// be modified by the caller. auth adds an X-Auth header when non-empty.
func (c *Conn) Send(payload []byte, auth string) error {
	if c.state != api.StateConnected {
		return api.ErrNotConnected
	}
	pre, err := c.writer.Preamble(len(payload), auth)
	if err != nil {
		return err
	}
	c.wq.Push(pre, payload)
	return c.setInterest(reactor.InterestReadWrite)
}

// Stats returns a snapshot for status reporting.
func (c *Conn) Stats() api.Stats {
	return api.Stats{
		State:         c.state,
		TLS:           c.cfg.TLS,
		Compression:   c.cfg.Compression,
		BytesSent:     c.bytesSent,
		BytesReceived: c.bytesReceived,
		Frames:        c.frames,
		Results:       c.results,
		Pending:       c.wq.Len(),
		Buffered:      c.rbuf.Len(),
		ConnectedAt:   c.connectedAt,
		LastActivity:  c.lastActivity,
	}
}

func (c *Conn) setInterest(i reactor.Interest) error {
	if c.sock == nil || i == c.interest {
		return nil
	}
	if err := c.reactor.Modify(c.sock.Fd(), i); err != nil {
		return api.NewError(api.KindConnection, api.ErrBroken, "Connection broken").WithContext("cause", err.Error())
	}
	c.interest = i
	return nil
}

// updateInterest holds write interest exactly while output is pending.
func (c *Conn) updateInterest() error {
	if c.tr == nil {
		return nil
	}
	if c.wq.Empty() && !c.tr.Pending() {
		return c.setInterest(reactor.InterestRead)
	}
	return c.setInterest(reactor.InterestReadWrite)
}

// fail logs a terminal error once, counts it and closes the connection.
func (c *Conn) fail(err error) {
	c.log.Error(err.Error())
	c.metrics.Failed(api.KindOf(err).String())
	if c.state == api.StateConnecting {
		c.metrics.ConnectFailed()
	}
	c.Close()
}

var _ api.GracefulShutdown = (*Conn)(nil)
