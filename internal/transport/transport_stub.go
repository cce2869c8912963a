//go:build !linux
// +build !linux

// File: internal/transport/transport_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub socket for platforms without the epoll reactor.

package transport

import (
	"errors"
	"io"
	"net"
)

var errUnsupported = errors.New("transport: this platform is not supported")

// Socket is unavailable on this platform.
type Socket struct{}

// NewSocket always fails on unsupported platforms.
func NewSocket(net.IP, int) (*Socket, error) { return nil, errUnsupported }

func (s *Socket) Fd() int                    { return -1 }
func (s *Socket) Connect() error             { return errUnsupported }
func (s *Socket) ConnectResult() error       { return errUnsupported }
func (s *Socket) Recv([]byte) (int, error)   { return 0, errUnsupported }
func (s *Socket) Send([][]byte) (int, error) { return 0, errUnsupported }
func (s *Socket) Pending() bool              { return false }
func (s *Socket) Close() error               { return nil }

// IsBroken reports whether err means the peer dropped the stream.
func IsBroken(err error) bool { return errors.Is(err, io.EOF) }

// IsRefused reports whether err means the peer rejected the connect.
func IsRefused(error) bool { return false }
