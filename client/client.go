// File: client/client.go
// Package client provides the owning client of the keep-alive command
// connection: request ids, batching and result correlation.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This client implements:
// - Lazy connect on first Call, reusing the connection afterwards
// - Per-command ids (UUIDv4) correlated with x-jsonrequestid
// - Size and count bounded batches sent back to back
// - Cooperative cancellation and no automatic retry; the caller decides

package client

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-fe/api"
	"github.com/momentics/hioload-fe/connection"
	"github.com/momentics/hioload-fe/control"
)

// Command is one JSON command. ID is assigned by Call when empty.
type Command struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Reply pairs a command id with the result delivered for it.
type Reply struct {
	ID     string
	Result api.Result
}

// Option customizes Client initialization.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	registry prometheus.Registerer
	signal   *control.Signal
	tls      *tls.Config
	probes   *control.DebugProbes
	conn     []connection.Option
}

// WithLogger sets the root logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer enables metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithSignal shares a cancellation signal with the caller.
func WithSignal(s *control.Signal) Option {
	return func(o *options) { o.signal = s }
}

// WithTLSConfig sets the base TLS configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) { o.tls = cfg }
}

// WithProbes registers connection probes on dp.
func WithProbes(dp *control.DebugProbes) Option {
	return func(o *options) { o.probes = dp }
}

// WithConnectionOptions passes extra options to the connection.
func WithConnectionOptions(opts ...connection.Option) Option {
	return func(o *options) { o.conn = append(o.conn, opts...) }
}

// Client sends commands over one keep-alive connection.
type Client struct {
	cfg    *control.Config
	conn   *connection.Conn
	log    *slog.Logger
	signal *control.Signal

	pending map[string]int // command id -> reply slot
	order   []string       // ids in send order, for results without an id
	next    int            // first slot in order not yet answered
	replies []Reply
	filled  int

	unsolicited []api.Result
}

// New builds a Client from configuration. No connection is made yet.
func New(cfg *control.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("client: nil config")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.signal == nil {
		o.signal = control.NewSignal()
	}
	c := &Client{
		cfg:    cfg,
		log:    control.Named(o.logger, "client"),
		signal: o.signal,
	}
	var metrics *control.Metrics
	if cfg.Metrics.Enabled {
		metrics = control.NewMetrics(o.registry)
	}
	connOpts := append([]connection.Option{
		connection.WithLogger(o.logger),
		connection.WithMetrics(metrics),
		connection.WithCancel(o.signal),
		connection.WithTLSConfig(o.tls),
	}, o.conn...)
	conn, err := connection.New(connection.ConfigFrom(cfg), api.ResultHandlerFunc(c.handleResult), connOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	if o.probes != nil {
		o.probes.RegisterProbe("connection", func() any { return conn.Stats() })
		o.probes.RegisterProbe("connection.state", func() any { return conn.State().String() })
	}
	return c, nil
}

// Signal returns the cancellation signal polled by the connection.
func (c *Client) Signal() *control.Signal { return c.signal }

// Stats returns the connection snapshot.
func (c *Client) Stats() api.Stats { return c.conn.Stats() }

// Call sends cmds and waits until every command has a reply. Commands
// without an id get a fresh UUID. Replies are returned in command order.
// On failure the replies received so far are returned with the error.
func (c *Client) Call(cmds []Command) ([]Reply, error) {
	if len(cmds) == 0 {
		return nil, nil
	}
	for i := range cmds {
		if cmds[i].ID == "" {
			cmds[i].ID = uuid.NewString()
		}
	}
	batches, err := Chunks(cmds, c.cfg.Batch.MaxCount, c.cfg.Batch.MaxSize)
	if err != nil {
		return nil, err
	}
	if err := c.conn.Connect(); err != nil {
		return nil, err
	}

	c.begin(cmds)
	defer c.end()
	for _, b := range batches {
		if err := c.conn.Send(b, c.cfg.Auth); err != nil {
			return nil, err
		}
	}
	c.log.Info("Sent", "commands", len(cmds), "batches", len(batches))

	_, err = c.conn.Run(func() bool { return c.filled < len(c.replies) })
	return c.collect(), err
}

func (c *Client) begin(cmds []Command) {
	c.pending = make(map[string]int, len(cmds))
	c.order = make([]string, len(cmds))
	c.replies = make([]Reply, len(cmds))
	c.next = 0
	c.filled = 0
	for i, cmd := range cmds {
		c.pending[cmd.ID] = i
		c.order[i] = cmd.ID
		c.replies[i].ID = cmd.ID
	}
}

func (c *Client) end() {
	c.pending = nil
	c.order = nil
	c.replies = nil
}

func (c *Client) collect() []Reply {
	out := make([]Reply, 0, c.filled)
	for _, r := range c.replies {
		if r.Result.Payload != nil {
			out = append(out, r)
		}
	}
	return out
}

// handleResult routes a decoded result to its command. Results without an
// id answer the oldest open command.
func (c *Client) handleResult(r api.Result) {
	slot, ok := c.pending[r.JSONRequestID]
	if !ok && r.JSONRequestID == "" {
		for c.next < len(c.order) {
			if s, open := c.pending[c.order[c.next]]; open {
				slot, ok = s, true
				break
			}
			c.next++
		}
	}
	if !ok {
		c.log.Warn("Unsolicited result", "json_request_id", r.JSONRequestID, "http_request_id", r.HTTPRequestID)
		c.unsolicited = append(c.unsolicited, r)
		return
	}
	delete(c.pending, c.replies[slot].ID)
	c.replies[slot].Result = r
	c.filled++
}

// Unsolicited returns results that matched no command and clears them.
func (c *Client) Unsolicited() []api.Result {
	out := c.unsolicited
	c.unsolicited = nil
	return out
}

// Close closes the connection; the next Call reconnects.
func (c *Client) Close() { c.conn.Close() }

// Shutdown closes the connection and releases the reactor.
func (c *Client) Shutdown() error {
	if err := c.conn.Shutdown(); err != nil {
		return fmt.Errorf("client shutdown: %w", err)
	}
	return nil
}

var _ api.GracefulShutdown = (*Client)(nil)
