package gateway

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnavailable indicates the outbound call to the payment processor timed
// out or returned an error. Callers may retry; the client never retries
// internally.
var ErrUnavailable = errors.New("payment gateway unavailable")

// StatusSuccessful is the terminal status the processor reports for a
// completed charge.
const StatusSuccessful = "successful"

// PaymentRequest initiates a hosted-checkout charge. Amount is int64 kobo;
// the client converts to major units on the wire.
type PaymentRequest struct {
	TxRef    string
	Amount   int64
	Currency string
	Email    string
}

// PaymentResponse carries the processor's initiation payload verbatim so the
// caller can hand the redirect link to the client untouched.
type PaymentResponse struct {
	Status  string
	Message string
	Raw     json.RawMessage
}

// Verification is the fail-closed result of a verify-by-reference call.
// Verified is true only when the processor reports the charge successful;
// Amount is the settled amount in kobo.
type Verification struct {
	Verified  bool
	Amount    int64
	RawStatus string
}

// TransferRequest initiates a payout to a bank account. Amount is int64 kobo.
type TransferRequest struct {
	AccountBank   string
	AccountNumber string
	Amount        int64
	Currency      string
	Reference     string
}

// TransferResult carries the processor's payout response.
type TransferResult struct {
	Reference string
	Raw       json.RawMessage
}

// Client is the connector to the external payment processor. Implementations
// never mutate the ledger; they only move requests and responses across the
// wire.
type Client interface {
	InitiatePayment(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
	VerifyTransaction(ctx context.Context, txRef string) (Verification, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (TransferResult, error)
}
