// File: protocol/response.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Response frame parser. A frame is a header block terminated by a blank
// line followed by exactly Content-Length body bytes. Parsing is
// incremental: an incomplete frame consumes nothing.

package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/momentics/hioload-fe/api"
)

const (
	// MaxHeaderBytes bounds the header block.
	MaxHeaderBytes = 4096
	// MaxHeaderName bounds a single header name.
	MaxHeaderName = 64
)

// Correlation headers.
const (
	HeaderConnectionID  = "x-connectionid"
	HeaderHTTPRequestID = "x-httprequestid"
	HeaderJSONRequestID = "x-jsonrequestid"
)

// Encoding is a supported content-encoding.
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingDeflate
)

func (e Encoding) String() string {
	if e == EncodingDeflate {
		return "deflate"
	}
	return "identity"
}

var (
	crlfcrlf = []byte("\r\n\r\n")
	lflf     = []byte("\n\n")
	nullJSON = json.RawMessage("null")
)

// Response is one fully received and decoded frame.
type Response struct {
	Proto         string
	Status        int
	Header        map[string]string
	ContentLength int
	Encoding      Encoding
	Charset       string
	// Body holds the UTF-8 JSON text after decompression and decoding.
	Body json.RawMessage
	// Size is the number of wire bytes the frame occupied.
	Size int
}

// ParseResponse parses the first frame of buf. It returns (nil, 0, nil)
// when buf does not yet hold a complete frame. Any error is terminal for
// the connection.
func ParseResponse(buf []byte) (*Response, int, error) {
	pos, delim := findDelimiter(buf)
	if pos < 0 {
		if len(buf) > MaxHeaderBytes {
			return nil, 0, api.NewError(api.KindProtocol, api.ErrHeadersTooLong, "HTTP headers are too long")
		}
		return nil, 0, nil
	}
	if pos > MaxHeaderBytes {
		return nil, 0, api.NewError(api.KindProtocol, api.ErrHeadersTooLong, "HTTP headers are too long")
	}

	lines := strings.Split(string(buf[:pos]), "\n")
	resp, err := parseStatusLine(strings.TrimSuffix(lines[0], "\r"))
	if err != nil {
		return nil, 0, err
	}
	if err := resp.parseHeaders(lines[1:]); err != nil {
		return nil, 0, err
	}

	start := pos + delim
	if len(buf)-start < resp.ContentLength {
		return nil, 0, nil
	}
	end := start + resp.ContentLength
	if err := resp.decodeBody(buf[start:end]); err != nil {
		return nil, 0, err
	}
	resp.Size = end
	return resp, end, nil
}

func findDelimiter(buf []byte) (int, int) {
	if i := bytes.Index(buf, crlfcrlf); i >= 0 {
		return i, len(crlfcrlf)
	}
	if i := bytes.Index(buf, lflf); i >= 0 {
		return i, len(lflf)
	}
	return -1, 0
}

func parseStatusLine(line string) (*Response, error) {
	fields := strings.Split(line, " ")
	if len(fields) < 2 {
		return nil, api.NewError(api.KindProtocol, api.ErrInvalidResponse, "Invalid HTTP response").
			WithContext("status_line", line)
	}
	switch fields[1] {
	case "200":
	case "503":
		return nil, api.NewError(api.KindProtocol, api.ErrServerOffline, "Server offline")
	default:
		return nil, api.Errorf(api.KindProtocol, api.ErrRequestFailure, "Request failure (status %s)", fields[1])
	}
	return &Response{Proto: fields[0], Status: 200}, nil
}

func (r *Response) parseHeaders(lines []string) error {
	r.Header = make(map[string]string, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		colon := strings.IndexByte(line, ':')
		name := ""
		if colon > 0 {
			name = strings.TrimSpace(line[:colon])
		}
		if name == "" || colon > MaxHeaderName {
			return api.NewError(api.KindProtocol, api.ErrHeaderName, "Invalid HTTP header name").
				WithContext("line", line)
		}
		r.Header[strings.ToLower(name)] = strings.TrimSpace(line[colon+1:])
	}

	cl := r.Header["content-length"]
	if !isDigits(cl) {
		return api.NewError(api.KindProtocol, api.ErrContentLength, "Invalid HTTP header value for content-length").
			WithContext("value", cl)
	}
	n, err := strconv.Atoi(cl)
	if err != nil {
		return api.NewError(api.KindProtocol, api.ErrContentLength, "Invalid HTTP header value for content-length").
			WithContext("value", cl)
	}
	r.ContentLength = n

	switch ce := r.Header["content-encoding"]; ce {
	case "":
		r.Encoding = EncodingNone
	case "deflate":
		r.Encoding = EncodingDeflate
	default:
		return api.NewError(api.KindProtocol, api.ErrEncoding, "Response HTTP encoding not supported").
			WithContext("encoding", ce)
	}

	ct := r.Header["content-type"]
	if ct == "" {
		return api.NewError(api.KindProtocol, api.ErrContentType, "Invalid HTTP header value for content-type")
	}
	r.Charset = CharsetOf(ct)
	if _, ok := LookupCharset(r.Charset); !ok {
		return api.NewError(api.KindProtocol, api.ErrCharset, "Not supported charset").
			WithContext("charset", r.Charset)
	}
	return nil
}

func (r *Response) decodeBody(raw []byte) error {
	body := raw
	if r.Encoding == EncodingDeflate {
		inflated, err := Inflate(raw)
		if err != nil {
			return contentError(err)
		}
		body = inflated
	}
	enc, _ := LookupCharset(r.Charset)
	text, err := decodeCharset(enc, body)
	if err != nil {
		return contentError(err)
	}
	text = bytes.TrimSpace(text)
	if len(text) == 0 {
		r.Body = nullJSON
		return nil
	}
	if !json.Valid(text) {
		return contentError(nil)
	}
	// text may alias the read buffer when no transformation was needed.
	r.Body = append(json.RawMessage(nil), text...)
	return nil
}

func contentError(cause error) error {
	e := api.NewError(api.KindProtocol, api.ErrContent, "Invalid response content")
	if cause != nil {
		e.WithContext("cause", cause.Error())
	}
	return e
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Results splits the frame into deliverable results. A JSON array yields
// one result per element paired with the comma-separated x-jsonrequestid
// values; missing ids are empty.
func (r *Response) Results() []api.Result {
	connID := r.Header[HeaderConnectionID]
	httpID := r.Header[HeaderHTTPRequestID]
	jsonID := r.Header[HeaderJSONRequestID]

	var elems []json.RawMessage
	if r.Body[0] != '[' || json.Unmarshal(r.Body, &elems) != nil {
		return []api.Result{{Payload: r.Body, ConnectionID: connID, HTTPRequestID: httpID, JSONRequestID: jsonID}}
	}

	var ids []string
	if jsonID != "" {
		ids = strings.Split(jsonID, ",")
	}
	out := make([]api.Result, len(elems))
	for i, e := range elems {
		id := ""
		if i < len(ids) {
			id = strings.TrimSpace(ids[i])
		}
		out[i] = api.Result{Payload: e, ConnectionID: connID, HTTPRequestID: httpID, JSONRequestID: id}
	}
	return out
}
