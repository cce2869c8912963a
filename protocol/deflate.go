// File: protocol/deflate.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw DEFLATE (RFC 1951, no zlib or gzip container) as used by the
// "deflate" content-encoding of the command endpoint.

package protocol

import (
	"bytes"
	"compress/flate"
	"io"
)

// Inflate decompresses a raw deflate stream.
func Inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

// Deflate compresses data at the best compression level.
func Deflate(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w, err := flate.NewWriter(&b, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
