package confirmo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"confirmo-gateway/internal/logger"
	"confirmo-gateway/internal/version"

	"go.uber.org/zap"
)

var (
	// ErrMissingURL means the create response decoded fine but carried no
	// redirect url; the caller surfaces a payment error and logs the raw body.
	ErrMissingURL = errors.New("confirmo response did not contain a url")

	// ErrMissingStatus means a fetched invoice carried no status field, so
	// the authoritative state cannot be verified.
	ErrMissingStatus = errors.New("confirmo invoice has no status")
)

// APIError is a non-2xx answer from the Confirmo API.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("confirmo error (%d): %s", e.StatusCode, e.Body)
}

type Client interface {
	CreateInvoice(ctx context.Context, apiKey string, req *InvoiceRequest) (*Invoice, error)
	GetInvoice(ctx context.Context, apiKey string, invoiceID string) (*Invoice, error)
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) Client {
	return &client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *client) CreateInvoice(ctx context.Context, apiKey string, invReq *InvoiceRequest) (*Invoice, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("reference", invReq.Reference),
		zap.String("currency_from", invReq.Invoice.CurrencyFrom),
		zap.String("amount", invReq.Invoice.Amount.String()),
	)

	jsonBody, err := json.Marshal(invReq)
	if err != nil {
		log.Error("Failed to marshal invoice request", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v3/invoices", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}
	c.setHeaders(req, apiKey)

	log.Info("Creating Confirmo invoice")

	bodyBytes, err := c.do(req)
	if err != nil {
		log.Error("Confirmo invoice creation failed", zap.Error(err))
		return nil, err
	}

	var inv Invoice
	if err := json.Unmarshal(bodyBytes, &inv); err != nil {
		log.Error("Failed decoding Confirmo response", zap.Error(err))
		return nil, err
	}
	inv.Raw = json.RawMessage(bodyBytes)

	if inv.URL == "" {
		log.Error("Confirmo response missing url", zap.ByteString("response", bodyBytes))
		return &inv, ErrMissingURL
	}

	log.Info("Confirmo invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("status", string(inv.Status)),
	)

	return &inv, nil
}

func (c *client) GetInvoice(ctx context.Context, apiKey string, invoiceID string) (*Invoice, error) {
	log := logger.FromCtx(ctx).With(zap.String("invoice_id", invoiceID))

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/v3/invoices/"+invoiceID, nil)
	if err != nil {
		log.Error("Failed building request", zap.Error(err))
		return nil, err
	}
	c.setHeaders(req, apiKey)

	bodyBytes, err := c.do(req)
	if err != nil {
		log.Error("Confirmo invoice fetch failed", zap.Error(err))
		return nil, err
	}

	var inv Invoice
	if err := json.Unmarshal(bodyBytes, &inv); err != nil {
		log.Error("Failed decoding invoice", zap.Error(err))
		return nil, err
	}
	inv.Raw = json.RawMessage(bodyBytes)

	if inv.Status == "" {
		log.Warn("Fetched invoice has no status", zap.ByteString("response", bodyBytes))
		return &inv, ErrMissingStatus
	}

	return &inv, nil
}

func (c *client) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Payment-Module", version.ModuleName)
	req.Header.Set("X-Payment-Module-Version", version.Version)
}

func (c *client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read confirmo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: bodyBytes}
	}

	return bodyBytes, nil
}
