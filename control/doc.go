// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, cancellation, logging, metrics and debug introspection for
// the hioload-fe client.
//
// Provides:
//   - TOML/YAML configuration with defaults and validation
//   - The cooperative cancellation Signal and its SIGINT hook
//   - slog logger construction with hierarchical names
//   - Prometheus collectors for the connection engine
//   - Named debug probes
package control
