// Package transport
// Author: momentics <momentics@gmail.com>
//
// Platform-independent helpers for building the client transport: endpoint
// resolution and plain/TLS selection.

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/momentics/hioload-fe/api"
)

// Resolve returns the first address of host, preferring IPv4.
func Resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolve %s: no addresses", host)
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return a.IP, nil
		}
	}
	return addrs[0].IP, nil
}

// Upgrade wraps a connected socket with the TLS adapter when secure is set
// and returns the socket unchanged otherwise. base may be nil.
func Upgrade(raw api.Transport, host string, secure bool, base *tls.Config) api.Transport {
	if !secure {
		return raw
	}
	return NewTLSTransport(raw, ClientConfig(host, base))
}
