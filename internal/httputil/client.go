// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/pdiddy/labscout/pkg/types"
)

// NewClient returns an HTTP client whose overall timeout is cfg.Timeout.
// Callers still attach a per-request context; the client timeout is the
// backstop when a caller forgets to.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultSourceTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
		MaxIdleConnsPerHost:   8,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
