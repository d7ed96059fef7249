package utils

import (
	"freelyforms-backend/pkg/logger"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// LoggingTransport implements http.RoundTripper and logs every outbound call.
// Bodies are not logged; they carry whole spreadsheets.
type LoggingTransport struct {
	Transport http.RoundTripper
}

// RoundTrip executes a single HTTP transaction and logs its outcome
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	resp, err := transport.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.Int64("request_bytes", req.ContentLength),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		logger.Log.Error("Outbound request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	fields = append(fields, zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= 400 {
		logger.Log.Warn("Outbound request rejected", fields...)
	} else {
		logger.Log.Debug("Outbound request", fields...)
	}

	return resp, nil
}

// NewHTTPClient returns a new http.Client with logging enabled
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &LoggingTransport{
			Transport: http.DefaultTransport,
		},
	}
}
