// File: protocol/request.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request preamble serialization. The header block is ISO-8859-1 on the
// wire; the JSON payload follows unencoded.

package protocol

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/text/encoding/charmap"

	"github.com/momentics/hioload-fe/api"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "hioload-fe/1.0"

const crlf = "\r\n"

// RequestWriter builds request preambles for one endpoint. The static part
// of the header block is encoded once.
type RequestWriter struct {
	static []byte
}

// NewRequestWriter prepares the fixed headers for host:port.
func NewRequestWriter(host string, port int, userAgent string, compression bool) (*RequestWriter, error) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	var b bytes.Buffer
	b.WriteString("POST / HTTP/1.1" + crlf)
	fmt.Fprintf(&b, "Host: %s:%d"+crlf, host, port)
	b.WriteString("User-Agent: " + userAgent + crlf)
	b.WriteString("Accept: */*" + crlf)
	b.WriteString("Connection: Keep-Alive" + crlf)
	b.WriteString("Content-Type: application/json;charset=utf-8" + crlf)
	if compression {
		b.WriteString("Accept-Encoding: deflate" + crlf)
	}
	static, err := latin1(b.Bytes())
	if err != nil {
		return nil, err
	}
	return &RequestWriter{static: static}, nil
}

// Preamble returns the header block for a payload of n bytes, terminated by
// the blank line. auth adds an X-Auth header when non-empty.
func (w *RequestWriter) Preamble(n int, auth string) ([]byte, error) {
	out := make([]byte, 0, len(w.static)+len(auth)+40)
	out = append(out, w.static...)
	if auth != "" {
		enc, err := latin1([]byte("X-Auth: " + auth + crlf))
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	out = append(out, "Content-Length: "...)
	out = strconv.AppendInt(out, int64(n), 10)
	out = append(out, crlf+crlf...)
	return out, nil
}

func latin1(s []byte) ([]byte, error) {
	out, err := charmap.ISO8859_1.NewEncoder().Bytes(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", api.ErrRequestHeader, err)
	}
	return out, nil
}
