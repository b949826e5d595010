// Package portal is the Go client for the PixelPanic HTTP API. It carries the
// browser-side state machines (session, checkout, invite acceptance and the
// technician gig workflow) so they can be driven and tested without a browser.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pixelpanic/internal/core/apperr"
	"pixelpanic/internal/core/httpclient"
	"pixelpanic/internal/core/logger"

	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// RemoteError is a non-2xx answer. Message is the server text, shown to users verbatim.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// TransportError is a network or decoding failure. The outcome of the call is unknown.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is a RemoteError with the given status.
func IsStatus(err error, status int) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == status
}

// UserMessage renders err for display.
func UserMessage(err error) string {
	var (
		re *RemoteError
		ve *apperr.ValidationError
		te *TransportError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &re):
		return re.Message
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &te):
		return "Network error, please try again"
	}
	return err.Error()
}

// Client talks to one PixelPanic origin and keeps its session cookie.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient returns a client with a logging transport and a cookie jar.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, httpclient.NewSessionClient(timeout))
}

// NewClientWithHTTP wraps an existing http.Client. It must carry a cookie jar for sessions to stick.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    hc,
		log:     logger.Named("portal"),
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("portal: failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	op := req.Method + " " + req.URL.Path

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{Status: resp.StatusCode, Message: remoteMessage(raw, resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// remoteMessage prefers a JSON message field, then the raw body, then the status text.
func remoteMessage(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		return body.Message
	}

	text := strings.TrimSpace(string(raw))
	if text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	return http.StatusText(status)
}
