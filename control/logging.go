// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// slog logger factory. Components derive named children with Named.

package control

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LoggerKey is the attribute carrying the hierarchical component name.
const LoggerKey = "logger"

// ParseLevel maps a config level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// NewLogger builds a root logger writing to w. The root carries no name;
// components take theirs with Named.
func NewLogger(w io.Writer, cfg LogConfig) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}

// Named returns a child of the root logger carrying the full dotted name,
// e.g. "client.socket". A nil parent yields a logger that discards
// everything.
func Named(parent *slog.Logger, name string) *slog.Logger {
	if parent == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return parent.With(LoggerKey, name)
}
