// Package protocol
// Author: momentics <momentics@gmail.com>
//
// Implements the keep-alive JSON command framing for hioload-fe.
//
// Includes:
//   - POST request preamble serialization (ISO-8859-1 header block)
//   - Incremental response frame parsing with pipelined frames
//   - Raw deflate content-encoding
//   - Charset resolution through the IANA and WHATWG indexes
//   - Splitting of batched array bodies into correlated results
package protocol
