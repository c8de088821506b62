package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/naira-vault/naira_vault/internal/config"
	"github.com/naira-vault/naira_vault/internal/money"
)

// HTTPClient talks to a Flutterwave-style processor over HTTPS with a bounded
// timeout and bearer-token authorization.
type HTTPClient struct {
	baseURL     string
	secretKey   string
	redirectURL string
	http        *http.Client
	logger      *slog.Logger
}

// NewHTTPClient builds a client from the injected configuration.
func NewHTTPClient(cfg config.Config, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:     cfg.GatewayBaseURL,
		secretKey:   cfg.GatewaySecretKey,
		redirectURL: cfg.RedirectURL,
		http:        &http.Client{Timeout: cfg.GatewayTimeout},
		logger:      logger,
	}
}

type initiatePayload struct {
	TxRef       string          `json:"tx_ref"`
	Amount      json.RawMessage `json:"amount"`
	Currency    string          `json:"currency"`
	RedirectURL string          `json:"redirect_url"`
	Customer    struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// InitiatePayment starts a hosted charge and returns the processor's response
// verbatim.
func (c *HTTPClient) InitiatePayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	payload := initiatePayload{
		TxRef:       req.TxRef,
		Amount:      majorAmount(req.Amount),
		Currency:    req.Currency,
		RedirectURL: c.redirectURL,
	}
	payload.Customer.Email = req.Email

	body, err := c.post(ctx, "/payments", payload)
	if err != nil {
		return PaymentResponse{}, err
	}

	var envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return PaymentResponse{}, fmt.Errorf("%w: decode initiate response: %v", ErrUnavailable, err)
	}

	return PaymentResponse{Status: envelope.Status, Message: envelope.Message, Raw: body}, nil
}

// VerifyTransaction checks the charge status by reference. Any transport
// failure or non-successful status yields Verified=false.
func (c *HTTPClient) VerifyTransaction(ctx context.Context, txRef string) (Verification, error) {
	endpoint := c.baseURL + "/transactions/verify_by_reference?" + url.Values{"tx_ref": {txRef}}.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Verification{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	body, err := c.do(httpReq)
	if err != nil {
		return Verification{}, err
	}

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			Status string  `json:"status"`
			Amount float64 `json:"amount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Verification{}, fmt.Errorf("%w: decode verify response: %v", ErrUnavailable, err)
	}

	verification := Verification{RawStatus: envelope.Data.Status}
	if envelope.Status != "success" || envelope.Data.Status != StatusSuccessful {
		return verification, nil
	}

	amount, err := money.FromMajorFloat(envelope.Data.Amount)
	if err != nil {
		c.logger.Warn("gateway reported unrepresentable amount", "tx_ref", txRef, "amount", envelope.Data.Amount)
		return verification, nil
	}

	verification.Verified = true
	verification.Amount = amount
	return verification, nil
}

type transferPayload struct {
	AccountBank   string          `json:"account_bank"`
	AccountNumber string          `json:"account_number"`
	Amount        json.RawMessage `json:"amount"`
	Currency      string          `json:"currency"`
	Reference     string          `json:"reference"`
}

// InitiateTransfer requests a payout. The ledger debit is the caller's
// responsibility and must happen only after this returns without error.
func (c *HTTPClient) InitiateTransfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	payload := transferPayload{
		AccountBank:   req.AccountBank,
		AccountNumber: req.AccountNumber,
		Amount:        majorAmount(req.Amount),
		Currency:      req.Currency,
		Reference:     req.Reference,
	}

	body, err := c.post(ctx, "/transfers", payload)
	if err != nil {
		return TransferResult{}, err
	}

	return TransferResult{Reference: req.Reference, Raw: body}, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	return c.do(httpReq)
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("gateway call failed", "path", req.URL.Path, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return body, nil
}

// majorAmount renders kobo as a major-unit JSON number.
func majorAmount(minor int64) json.RawMessage {
	return json.RawMessage(money.ToMajor(minor).String())
}
