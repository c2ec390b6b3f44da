// Package httpclient builds the HTTP clients shared by every connector.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

const (
	// DefaultConnectTimeout bounds dialing and the TLS handshake.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultReadTimeout bounds the wait for response headers and the whole
	// exchange once connected.
	DefaultReadTimeout = 30 * time.Second

	// MaxErrorBody is how much of a response body is kept on typed errors.
	MaxErrorBody = 500
)

// New returns a client whose connect phase is limited by connect and whose
// response phase is limited by read. Zero values use the defaults.
func New(connect, read time.Duration) *http.Client {
	if connect <= 0 {
		connect = DefaultConnectTimeout
	}
	if read <= 0 {
		read = DefaultReadTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   connect + read,
		Transport: transport,
	}
}

// Truncate shortens a response body for diagnostics.
func Truncate(body []byte, n int) string {
	if n <= 0 {
		n = MaxErrorBody
	}
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}

// Success reports whether status is a 2xx code.
func Success(status int) bool {
	return status >= 200 && status < 300
}
