package customHttpClient

import (
	"net/http"

	"github.com/anvikal/askapi/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// Pooled returns a client reusing idle connections, for providers that
// accept an injected http.Client.
func Pooled() *http.Client {
	return &http.Client{Transport: customTransport}
}
