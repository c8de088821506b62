package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// PostgresLedger persists wallets and transactions in PostgreSQL. Each
// mutation locks the wallet row and inserts the transaction record inside a
// single database transaction, so the dedup check and the balance change
// cannot diverge.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// CreateWallet provisions a zero-balance wallet for the user.
func (l *PostgresLedger) CreateWallet(ctx context.Context, userID, currency string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, err
	}
	w := Wallet{UserID: userID, Balance: 0, Currency: currency, CreatedAt: time.Now().UTC()}
	_, err = l.db.Exec(ctx, `INSERT INTO wallets (user_id, balance, currency, created_at)
        VALUES ($1, $2, $3, $4)`, uid, w.Balance, w.Currency, w.CreatedAt)
	if err != nil {
		return Wallet{}, err
	}
	return w, nil
}

// Get fetches the wallet for a user.
func (l *PostgresLedger) Get(ctx context.Context, userID string) (Wallet, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Wallet{}, ErrWalletNotFound
	}
	row := l.db.QueryRow(ctx, `SELECT user_id, balance, currency, created_at
        FROM wallets WHERE user_id = $1`, uid)
	return scanWallet(row)
}

// Credit applies a deposit for txRef, exactly once.
func (l *PostgresLedger) Credit(ctx context.Context, userID, txRef string, amount int64) (Entry, error) {
	return l.apply(ctx, userID, txRef, KindDeposit, amount)
}

// Debit applies a withdrawal for txRef, exactly once, failing with
// ErrInsufficientFunds when the locked balance cannot cover the amount.
func (l *PostgresLedger) Debit(ctx context.Context, userID, txRef string, amount int64) (Entry, error) {
	return l.apply(ctx, userID, txRef, KindWithdrawal, amount)
}

func (l *PostgresLedger) apply(ctx context.Context, userID, txRef, kind string, amount int64) (Entry, error) {
	if amount <= 0 {
		return Entry{}, fmt.Errorf("amount must be positive")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Entry{}, ErrWalletNotFound
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Entry{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, uid).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrWalletNotFound
		}
		return Entry{}, err
	}

	delta := amount
	if kind == KindWithdrawal {
		if balance < amount {
			return Entry{}, ErrInsufficientFunds
		}
		delta = -amount
	}

	record := Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		TxRef:     txRef,
		Status:    StatusSuccessful,
		CreatedAt: time.Now().UTC(),
	}

	// The unique constraint on tx_ref is the dedup gate: a violation means the
	// reference was already reconciled, possibly by a concurrent request.
	if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, user_id, kind, amount, tx_ref, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.MustParse(record.ID), uid, record.Kind, record.Amount, record.TxRef, record.Status, record.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Entry{}, ErrDuplicateTransaction
		}
		return Entry{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance + $1 WHERE user_id = $2`, delta, uid); err != nil {
		return Entry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, err
	}

	return Entry{Transaction: record, NewBalance: balance + delta}, nil
}

// History returns the user's transactions, newest first.
func (l *PostgresLedger) History(ctx context.Context, userID string) ([]Transaction, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	rows, err := l.db.Query(ctx, `SELECT id, user_id, kind, amount, tx_ref, status, created_at
        FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []Transaction
	for rows.Next() {
		var (
			record    Transaction
			id        uuid.UUID
			owner     uuid.UUID
			createdAt time.Time
		)
		if err := rows.Scan(&id, &owner, &record.Kind, &record.Amount, &record.TxRef, &record.Status, &createdAt); err != nil {
			return nil, err
		}
		record.ID = id.String()
		record.UserID = owner.String()
		record.CreatedAt = createdAt.UTC()
		history = append(history, record)
	}
	return history, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		uid       uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&uid, &w.Balance, &w.Currency, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrWalletNotFound
		}
		return Wallet{}, err
	}
	w.UserID = uid.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
