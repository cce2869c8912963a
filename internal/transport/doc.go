// File: internal/transport/doc.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client transport layer for hioload-fe: a non-blocking Linux TCP socket
// and a TLS 1.2 adapter that drives crypto/tls from readiness events
// through an in-memory ciphertext pipe. Both implement api.Transport so the
// connection state machine stays agnostic of the variant in use.

package transport
