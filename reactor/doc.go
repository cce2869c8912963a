// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness multiplexer used by the connection
// event loop: one descriptor, an interest mask, and a bounded wait.
package reactor
