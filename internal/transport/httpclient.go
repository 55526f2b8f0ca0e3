// Package transport provides the shared HTTP plumbing for venue connectors:
// a tuned http.Client, a minimum-interval rate limiter, and an exponential
// backoff policy for retries.
package transport

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns an http.Client tuned for polling public exchange
// REST endpoints: short dial and TLS timeouts, connection reuse across scan
// cycles, and an overall request timeout.
func NewHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr, Timeout: 10 * time.Second}
}
