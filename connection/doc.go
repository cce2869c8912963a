// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package connection drives a single keep-alive connection to the command
// endpoint: non-blocking connect, optional TLS handshake, request writing,
// response framing and liveness, all from one readiness loop.
package connection
