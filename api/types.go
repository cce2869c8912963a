// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations and constants.

package api

import "time"

// State enumerates the lifecycle of the single keep-alive connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time view of a connection for status reporting.
type Stats struct {
	State         State
	TLS           bool
	Compression   bool
	BytesSent     uint64
	BytesReceived uint64
	Frames        uint64
	Results       uint64
	Pending       int // bytes still queued for write
	Buffered      int // bytes received but not yet consumed
	ConnectedAt   time.Time
	LastActivity  time.Time
}
