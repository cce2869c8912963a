// internal/transport/transport_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux non-blocking TCP socket implementing api.Transport.

package transport

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/momentics/hioload-fe/api"
	"golang.org/x/sys/unix"
)

// Socket is a non-blocking TCP client socket. It is the plain transport.
type Socket struct {
	fd int
	sa unix.Sockaddr
}

var _ api.Transport = (*Socket)(nil)

// NewSocket creates a non-blocking TCP socket for the given peer address.
func NewSocket(ip net.IP, port int) (*Socket, error) {
	var (
		domain int
		sa     unix.Sockaddr
	)
	if ip4 := ip.To4(); ip4 != nil {
		addr := &unix.SockaddrInet4{Port: port}
		copy(addr.Addr[:], ip4)
		domain, sa = unix.AF_INET, addr
	} else if ip16 := ip.To16(); ip16 != nil {
		addr := &unix.SockaddrInet6{Port: port}
		copy(addr.Addr[:], ip16)
		domain, sa = unix.AF_INET6, addr
	} else {
		return nil, fmt.Errorf("socket create: invalid address %q", ip)
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket create: %w", err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	return &Socket{fd: fd, sa: sa}, nil
}

// Fd returns the socket descriptor.
func (s *Socket) Fd() int { return s.fd }

// Connect issues a non-blocking connect. It returns nil when the socket is
// connected, api.ErrWouldBlock while the connect is in progress, and the
// raw errno otherwise.
func (s *Socket) Connect() error {
	err := unix.Connect(s.fd, s.sa)
	switch {
	case err == nil, errors.Is(err, unix.EISCONN):
		return nil
	case errors.Is(err, unix.EINPROGRESS), errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EALREADY):
		return api.ErrWouldBlock
	default:
		return err
	}
}

// ConnectResult reports the outcome of a pending connect once the socket
// became writable.
func (s *Socket) ConnectResult() error {
	errno, err := unix.GetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

// Recv performs one non-blocking read.
func (s *Socket) Recv(p []byte) (int, error) {
	n, err := unix.Read(s.fd, p)
	switch {
	case err == nil && n == 0 && len(p) > 0:
		return 0, io.EOF
	case err == nil:
		return n, nil
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return 0, api.ErrWouldBlock
	default:
		return 0, err
	}
}

// Send gathers bufs into one sendmsg call.
func (s *Socket) Send(bufs [][]byte) (int, error) {
	if len(bufs) == 0 {
		return 0, nil
	}
	n, err := unix.SendmsgBuffers(s.fd, bufs, nil, nil, unix.MSG_DONTWAIT|unix.MSG_NOSIGNAL)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return 0, api.ErrWouldBlock
	default:
		return 0, err
	}
}

// Pending is always false: the kernel owns everything accepted by Send.
func (s *Socket) Pending() bool { return false }

// Close closes the socket.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}

// IsBroken reports whether err means the peer dropped the stream.
func IsBroken(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, unix.EPIPE) ||
		errors.Is(err, unix.ECONNRESET) ||
		errors.Is(err, unix.ECONNABORTED)
}

// IsRefused reports whether err means the peer rejected the connect.
func IsRefused(err error) bool {
	return errors.Is(err, unix.ECONNREFUSED)
}
