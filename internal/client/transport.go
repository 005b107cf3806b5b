package client

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/csvedit/internal/logging"
)

// loggingTransport logs every request using structured logging.
//
// Log fields:
//   - method: HTTP method
//   - path: request URL path
//   - status: response status code (absent on transport failure)
//   - duration_ms: round-trip time in milliseconds
//   - request_id: taken from the request context
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(req.Context())

	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		logger.Warn("request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	logger.Info("request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return resp, nil
}
