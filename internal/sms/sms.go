// Package sms delivers registration verification codes over a HTTP SMS
// gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lomal-tg/lomal-backend/internal/config"
)

// ErrNotConfigured is returned when no gateway is configured. The auth
// service treats it as the signal to enter the permissive demo fallback.
var ErrNotConfigured = errors.New("sms gateway not configured")

// Sender delivers a verification code to a phone number.
type Sender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// GatewayClient is the live delivery channel.
type GatewayClient struct {
	baseURL    string
	apiKey     string
	sender     string
	httpClient *http.Client
}

// NewGatewayClient creates a client for the configured SMS gateway.
func NewGatewayClient(cfg config.SMSGateway) *GatewayClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		sender:     cfg.Sender,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
}

// SendCode posts the verification code to the gateway. Returns
// ErrNotConfigured when no base URL is set.
func (c *GatewayClient) SendCode(ctx context.Context, phone, code string) error {
	const op = "sms.SendCode"

	if c.baseURL == "" {
		return fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	body := sendRequest{
		To:      phone,
		From:    c.sender,
		Message: fmt.Sprintf("Votre code de vérification LOMAL: %s", code),
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	return nil
}
