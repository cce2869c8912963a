// Package client: hex helpers for binary command parameters.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package client

import (
	"encoding/hex"
	"strings"
)

// HexToBytes decodes a hex string with an optional 0x prefix.
func HexToBytes(s string) ([]byte, error) {
	if len(s) >= 2 && strings.EqualFold(s[:2], "0x") {
		s = s[2:]
	}
	return hex.DecodeString(s)
}
