package customHttpClient

import (
	"net/http"

	"github.com/akolanti/driveqa/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// Pooled returns a client that reuses connections across the many small
// drive export/download calls a reindex makes.
func Pooled() *http.Client {
	return &http.Client{Transport: customTransport}
}
