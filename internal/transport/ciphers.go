// File: internal/transport/ciphers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed TLS 1.2 client policy.

package transport

import (
	"crypto/tls"
)

// preferredSuites is the cipher preference list in order. DHE, PSK and SRP
// suites of the endpoint's reference policy have no crypto/tls
// implementation and are absent.
var preferredSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA,
	tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
	tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_RSA_WITH_AES_256_CBC_SHA,
}

// PreferredCipherSuites returns a copy of the ordered suite list.
func PreferredCipherSuites() []uint16 {
	return append([]uint16(nil), preferredSuites...)
}

// ClientConfig builds the TLS 1.2 client configuration for host. base may
// carry trust roots or certificates; version, suites and SNI are always
// overridden.
func ClientConfig(host string, base *tls.Config) *tls.Config {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{}
	}
	cfg.MinVersion = tls.VersionTLS12
	cfg.MaxVersion = tls.VersionTLS12
	cfg.CipherSuites = PreferredCipherSuites()
	cfg.ServerName = host
	cfg.NextProtos = nil
	return cfg
}
