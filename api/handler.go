// File: api/handler.go
// Package api defines the result collaborator contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "encoding/json"

// Result is one decoded JSON value delivered from a response frame together
// with its correlation identifiers.
type Result struct {
	Payload       json.RawMessage
	ConnectionID  string
	HTTPRequestID string
	JSONRequestID string
}

// ResultHandler receives every decoded result. It is called from the event
// loop and must not block.
type ResultHandler interface {
	HandleResult(r Result)
}

// ResultHandlerFunc adapts a function to ResultHandler.
type ResultHandlerFunc func(r Result)

// HandleResult calls f(r).
func (f ResultHandlerFunc) HandleResult(r Result) { f(r) }
