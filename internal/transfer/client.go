// Package transfer moves catalog documents and packages over HTTP.
package transfer

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

const userAgent = "xcodetools/1.0"

// NewHTTPClient returns an http.Client restricted to modern TLS. A zero
// timeout leaves requests unbounded.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// TransferError reports a failed network transfer, as opposed to a failure
// to interpret what was transferred.
type TransferError struct {
	URL string
	Err error
}

// Error implements the error interface
func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s: %v", e.URL, e.Err)
}

// Unwrap returns the wrapped error
func (e *TransferError) Unwrap() error {
	return e.Err
}

// StatusError is returned when a server answers with an unexpected status.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

func newRequest(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", userAgent)
	return req
}
