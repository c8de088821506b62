package wallet

import "encoding/json"

// DepositRequest initiates a hosted charge. Amount is major-unit NGN.
type DepositRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

// DepositResponse hands the processor's checkout payload back to the client.
type DepositResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	TxRef   string          `json:"tx_ref"`
}

// VerifyRequest confirms a charge by reference.
type VerifyRequest struct {
	TxRef string `json:"tx_ref"`
}

// WithdrawRequest requests a payout. Amount is major-unit NGN.
type WithdrawRequest struct {
	Amount        float64 `json:"amount"`
	AccountBank   string  `json:"account_bank"`
	AccountNumber string  `json:"account_number"`
}

// BalanceResponse reports the wallet balance in major units.
type BalanceResponse struct {
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
}

// TransactionView is one history entry, amount in major units.
type TransactionView struct {
	TxRef     string `json:"tx_ref"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}
