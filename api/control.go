// File: api/control.go
// Package api defines the cancellation source contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// CancelSource exposes a single query reporting whether a stop has been
// requested. Consumers only read it.
type CancelSource interface {
	Cancelled() bool
}
