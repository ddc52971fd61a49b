// Package paymentprovider implements the PayDunya checkout-invoice client
// used when the payment engine runs in live mode.
package paymentprovider

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

type Client struct {
	masterKey  string
	privateKey string
	token      string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a PayDunya API client.
func NewClient(cfg config.PayDunya) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		masterKey:  cfg.MasterKey,
		privateKey: cfg.PrivateKey,
		token:      cfg.Token,
		apiURL:     cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("PAYDUNYA-MASTER-KEY", c.masterKey)
	req.Header.Set("PAYDUNYA-PRIVATE-KEY", c.privateKey)
	req.Header.Set("PAYDUNYA-TOKEN", c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// CreateInvoice creates a checkout invoice at the provider.
func (c *Client) CreateInvoice(ctx context.Context, reqParams CreateInvoiceRequest) (*CreateInvoiceResponse, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/checkout-invoice/create", reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var invoiceResp CreateInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&invoiceResp); err != nil {
		return nil, err
	}
	if invoiceResp.ResponseCode != "00" {
		return nil, fmt.Errorf("provider rejected invoice: %s", invoiceResp.ResponseText)
	}
	return &invoiceResp, nil
}

// ConfirmInvoice polls the settlement status of a previously created
// invoice by its provider token.
func (c *Client) ConfirmInvoice(ctx context.Context, providerToken string) (*ConfirmInvoiceResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/checkout-invoice/confirm/"+providerToken, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var confirmResp ConfirmInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&confirmResp); err != nil {
		return nil, err
	}
	return &confirmResp, nil
}
