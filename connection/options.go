// File: connection/options.go
// Package connection defines functional options for Conn.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package connection

import (
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/momentics/hioload-fe/api"
	"github.com/momentics/hioload-fe/control"
)

// Loop timing defaults.
const (
	DefaultPollInterval     = 100 * time.Millisecond
	DefaultLivenessInterval = time.Second
)

// Config is the endpoint and timeout surface of one connection.
type Config struct {
	Host           string
	Port           int
	TLS            bool
	Compression    bool
	ConnectTimeout time.Duration
	DataTimeout    time.Duration
	UserAgent      string
}

// ConfigFrom maps the file configuration onto a connection Config.
func ConfigFrom(c *control.Config) Config {
	return Config{
		Host:           c.Endpoint,
		Port:           c.Port,
		TLS:            c.TLS,
		Compression:    c.Compression,
		ConnectTimeout: c.ConnectTimeout.Duration,
		DataTimeout:    c.DataTimeout.Duration,
		UserAgent:      c.UserAgent,
	}
}

// Option customizes Conn initialization.
type Option func(*Conn)

// WithLogger sets the parent logger; the connection logs as client.socket.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		c.log = control.Named(l, "client.socket")
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *control.Metrics) Option {
	return func(c *Conn) {
		c.metrics = m
	}
}

// WithCancel sets the cooperative cancellation source polled by the loop.
func WithCancel(s api.CancelSource) Option {
	return func(c *Conn) {
		c.cancel = s
	}
}

// WithTLSConfig sets the base TLS configuration, typically to supply
// trust roots. Protocol version, cipher suites and SNI are always forced.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Conn) {
		c.tlsBase = cfg
	}
}

// WithPollInterval bounds a single reactor wait.
func WithPollInterval(d time.Duration) Option {
	return func(c *Conn) {
		c.pollInterval = d
	}
}

// WithLivenessInterval sets how often the loop checks IsAlive.
func WithLivenessInterval(d time.Duration) Option {
	return func(c *Conn) {
		c.livenessInterval = d
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Conn) {
		c.now = now
	}
}
