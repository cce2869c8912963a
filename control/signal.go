// control/signal.go
// Author: momentics <momentics@gmail.com>
//
// Cooperative cancellation token shared by the event loop and whatever
// installs the interrupt handler.

package control

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// Signal is a set-once stop flag. The zero value is ready to use.
type Signal struct {
	stopped atomic.Bool
}

// NewSignal returns an unset signal.
func NewSignal() *Signal { return &Signal{} }

// Cancel requests a stop.
func (s *Signal) Cancel() { s.stopped.Store(true) }

// Cancelled reports whether a stop was requested.
func (s *Signal) Cancelled() bool { return s.stopped.Load() }

// Reset clears the flag so the owner can resume after handling a stop.
func (s *Signal) Reset() { s.stopped.Store(false) }

// NotifyInterrupt cancels s on SIGINT. The returned function uninstalls
// the handler.
func NotifyInterrupt(s *Signal) (stop func()) {
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, os.Interrupt)
	go func() {
		for {
			select {
			case <-ch:
				s.Cancel()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
