package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrWalletNotFound indicates no wallet exists for the user. Wallets are
	// provisioned at registration, so seeing this after registration is a
	// data-integrity fault, not a routine miss.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds occurs when a debit would take the balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates the payment reference has already been
	// reconciled and the operation should be treated as an idempotent no-op.
	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

const (
	// KindDeposit marks a transaction that credited the wallet.
	KindDeposit = "deposit"
	// KindWithdrawal marks a transaction that debited the wallet.
	KindWithdrawal = "withdrawal"
	// StatusSuccessful is the only terminal status a transaction is persisted with.
	StatusSuccessful = "successful"
)

// Wallet is a user's stored-value account. Balance is int64 kobo and is only
// ever mutated through Credit and Debit.
type Wallet struct {
	UserID    string
	Balance   int64
	Currency  string
	CreatedAt time.Time
}

// Transaction is the immutable record of a reconciled deposit or withdrawal.
// TxRef is unique across the system and acts as the deduplication key.
type Transaction struct {
	ID        string
	UserID    string
	Kind      string
	Amount    int64
	TxRef     string
	Status    string
	CreatedAt time.Time
}

// Entry reports the outcome of a balance mutation.
type Entry struct {
	Transaction Transaction
	NewBalance  int64
}

// Ledger is the single mutation path for wallet balances. Credit and Debit
// perform the dedup check, the balance change, and the transaction insert as
// one atomic unit: either all three take effect or none do.
type Ledger interface {
	CreateWallet(ctx context.Context, userID, currency string) (Wallet, error)
	Get(ctx context.Context, userID string) (Wallet, error)
	Credit(ctx context.Context, userID, txRef string, amount int64) (Entry, error)
	Debit(ctx context.Context, userID, txRef string, amount int64) (Entry, error)
	History(ctx context.Context, userID string) ([]Transaction, error)
}
