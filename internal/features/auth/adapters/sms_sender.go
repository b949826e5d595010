package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pixelpanic/internal/core/httpclient"
	"pixelpanic/internal/core/logger"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them.
// Reveal controls whether the body is logged; it is only set in development.
type LogSender struct {
	Reveal bool
}

// Send implements ports.SMSSender.
func (s LogSender) Send(_ context.Context, phone, message string) error {
	fields := []zap.Field{zap.String("phone", maskPhone(phone))}
	if s.Reveal {
		fields = append(fields, zap.String("message", message))
	}
	logger.Named("sms").Info("SMS not delivered: no gateway configured", fields...)
	return nil
}

// GatewaySender posts messages to an HTTP SMS gateway.
type GatewaySender struct {
	url    string
	apiKey string
	client *http.Client
}

// NewGatewaySender creates a GatewaySender using the logging http client.
func NewGatewaySender(url, apiKey string) *GatewaySender {
	return &GatewaySender{
		url:    url,
		apiKey: apiKey,
		client: httpclient.NewClient(10 * time.Second),
	}
}

type gatewayRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send implements ports.SMSSender.
func (s *GatewaySender) Send(ctx context.Context, phone, message string) error {
	body, err := json.Marshal(gatewayRequest{To: phone, Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal sms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}
