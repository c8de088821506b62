package gateway

import (
	"context"
	"encoding/json"
)

// Static simulates an always-successful processor. It backs development mode
// and tests that do not care about wire behavior.
type Static struct{}

// InitiatePayment approves the charge with a canned hosted-checkout link.
func (Static) InitiatePayment(_ context.Context, req PaymentRequest) (PaymentResponse, error) {
	raw, _ := json.Marshal(map[string]any{
		"status":  "success",
		"message": "Hosted Link",
		"data":    map[string]string{"link": "https://checkout.example.test/" + req.TxRef},
	})
	return PaymentResponse{Status: "success", Message: "Hosted Link", Raw: raw}, nil
}

// VerifyTransaction reports every reference as unverified; the static
// processor has no charge history to confirm against.
func (Static) VerifyTransaction(_ context.Context, _ string) (Verification, error) {
	return Verification{Verified: false, RawStatus: "pending"}, nil
}

// InitiateTransfer approves the payout.
func (Static) InitiateTransfer(_ context.Context, req TransferRequest) (TransferResult, error) {
	raw, _ := json.Marshal(map[string]any{"status": "success", "data": map[string]string{"reference": req.Reference}})
	return TransferResult{Reference: req.Reference, Raw: raw}, nil
}
