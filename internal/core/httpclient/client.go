package httpclient

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"pixelpanic/internal/core/logger"

	"go.uber.org/zap"
)

// LoggingRoundTripper logs every outbound request at debug level and failures at warn.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details. URLs are logged without their query string.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	target := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		logger.Get().Warn("HTTP request failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Get().Debug("HTTP request completed",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{Proxied: http.DefaultTransport},
		Timeout:   timeout,
	}
}

// NewSessionClient is NewClient plus an in-memory cookie jar, so a session cookie set by
// one response is sent on every later same-origin request.
func NewSessionClient(timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)
	c := NewClient(timeout)
	c.Jar = jar
	return c
}
