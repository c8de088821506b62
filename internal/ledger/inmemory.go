package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu      sync.RWMutex
	wallets map[string]*Wallet
	byRef   map[string]Transaction
	history map[string][]Transaction
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests. The single mutex covers the dedup check, the balance change, and the
// transaction record together, mirroring the Postgres transaction scope.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		wallets: make(map[string]*Wallet),
		byRef:   make(map[string]Transaction),
		history: make(map[string][]Transaction),
	}
}

func (l *inMemoryLedger) CreateWallet(_ context.Context, userID, currency string) (Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.wallets[userID]; exists {
		return Wallet{}, fmt.Errorf("wallet exists for user %s", userID)
	}
	w := Wallet{UserID: userID, Balance: 0, Currency: currency, CreatedAt: time.Now().UTC()}
	l.wallets[userID] = &w
	return w, nil
}

func (l *inMemoryLedger) Get(_ context.Context, userID string) (Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.wallets[userID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return *w, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, userID, txRef string, amount int64) (Entry, error) {
	return l.apply(userID, txRef, KindDeposit, amount)
}

func (l *inMemoryLedger) Debit(_ context.Context, userID, txRef string, amount int64) (Entry, error) {
	return l.apply(userID, txRef, KindWithdrawal, amount)
}

func (l *inMemoryLedger) apply(userID, txRef, kind string, amount int64) (Entry, error) {
	if amount <= 0 {
		return Entry{}, fmt.Errorf("amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byRef[txRef]; exists {
		return Entry{}, ErrDuplicateTransaction
	}

	w, ok := l.wallets[userID]
	if !ok {
		return Entry{}, ErrWalletNotFound
	}

	delta := amount
	if kind == KindWithdrawal {
		if w.Balance < amount {
			return Entry{}, ErrInsufficientFunds
		}
		delta = -amount
	}

	w.Balance += delta

	record := Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		TxRef:     txRef,
		Status:    StatusSuccessful,
		CreatedAt: time.Now().UTC(),
	}
	l.byRef[txRef] = record
	l.history[userID] = append(l.history[userID], record)

	return Entry{Transaction: record, NewBalance: w.Balance}, nil
}

func (l *inMemoryLedger) History(_ context.Context, userID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := make([]Transaction, len(l.history[userID]))
	copy(records, l.history[userID])
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records, nil
}
