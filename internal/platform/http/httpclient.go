// Package http builds outbound HTTP clients for third-party APIs.
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client for calls to external APIs such as Gemini.
// http.DefaultClient has no timeout, so callers always go through this constructor.
//
//   - Proxy honours HTTP_PROXY and friends
//   - connections time out after 5s and idle ones are kept for 90s
//   - timeout bounds the whole request
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
