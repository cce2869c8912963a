// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness multiplexer for a single client descriptor.

package reactor

import "time"

// Interest is the readiness mask a descriptor is watched for.
type Interest uint8

const (
	InterestNone  Interest = 0
	InterestRead  Interest = 1 << 0
	InterestWrite Interest = 1 << 1

	InterestReadWrite = InterestRead | InterestWrite
)

func (i Interest) String() string {
	switch i {
	case InterestRead:
		return "R"
	case InterestWrite:
		return "W"
	case InterestReadWrite:
		return "RW"
	default:
		return "-"
	}
}

// Event contains readiness information returned by Wait.
type Event struct {
	Fd       int
	Readable bool // input or urgent data available
	Writable bool
	Failed   bool // error, hang-up or invalid descriptor
}

// EventReactor watches descriptors for readiness. Error and hang-up
// conditions are always reported regardless of the interest mask.
type EventReactor interface {
	// Register adds fd with the given interest.
	Register(fd int, interest Interest) error

	// Modify replaces the interest mask of a registered fd.
	Modify(fd int, interest Interest) error

	// Unregister removes fd. Removing an unknown fd is not an error.
	Unregister(fd int) error

	// Wait blocks up to timeout for readiness and fills events.
	// An interrupted wait returns zero events and no error.
	Wait(events []Event, timeout time.Duration) (int, error)

	// Close releases the multiplexer.
	Close() error
}
