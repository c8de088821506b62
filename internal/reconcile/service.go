package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/naira-vault/naira_vault/internal/gateway"
	"github.com/naira-vault/naira_vault/internal/ledger"
	"github.com/naira-vault/naira_vault/internal/metrics"
	"github.com/naira-vault/naira_vault/internal/money"
	"github.com/naira-vault/naira_vault/internal/notification"
	"github.com/naira-vault/naira_vault/internal/reference"
)

var (
	// ErrInvalidAmount rejects non-positive or unrepresentable amounts before
	// any external call or ledger mutation.
	ErrInvalidAmount = errors.New("amount must be a positive number")

	// ErrPaymentNotSuccessful indicates the processor reported a status other
	// than successful for a deposit event.
	ErrPaymentNotSuccessful = errors.New("payment not successful")

	// ErrVerificationFailed indicates the verify-by-reference call did not
	// confirm the charge.
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrReconciliationInconsistency is fatal: the external transfer succeeded
	// but the ledger debit did not. Money has moved outside the ledger's
	// knowledge and an operator must reconcile by hand.
	ErrReconciliationInconsistency = errors.New("reconciliation inconsistency")
)

// Service is the reconciliation engine. Each tx_ref moves Unknown->Confirmed
// exactly once; the ledger's atomic Credit/Debit is the transition.
type Service struct {
	ledger          ledger.Ledger
	gw              gateway.Client
	refs            *reference.Generator
	notifier        notification.Notifier
	metrics         *metrics.Metrics
	logger          *slog.Logger
	defaultCurrency string
}

// NewService constructs the engine. notifier and metrics may be nil.
func NewService(l ledger.Ledger, gw gateway.Client, refs *reference.Generator, notifier notification.Notifier, m *metrics.Metrics, logger *slog.Logger, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = "NGN"
	}
	return &Service{
		ledger:          l,
		gw:              gw,
		refs:            refs,
		notifier:        notifier,
		metrics:         m,
		logger:          logger,
		defaultCurrency: defaultCurrency,
	}
}

// DepositInitiation carries the generated reference and the processor's raw
// response back to the client.
type DepositInitiation struct {
	TxRef string
	Raw   json.RawMessage
}

// InitiateDeposit generates a fresh reference and starts a hosted charge.
// No ledger mutation happens here; the credit lands via webhook or verify.
func (s *Service) InitiateDeposit(ctx context.Context, userID, email string, amount int64, currency string) (DepositInitiation, error) {
	if amount <= 0 {
		return DepositInitiation{}, ErrInvalidAmount
	}
	if currency == "" {
		currency = s.defaultCurrency
	}
	if _, err := s.ledger.Get(ctx, userID); err != nil {
		return DepositInitiation{}, err
	}

	txRef := s.refs.Deposit()
	resp, err := s.gw.InitiatePayment(ctx, gateway.PaymentRequest{
		TxRef:    txRef,
		Amount:   amount,
		Currency: currency,
		Email:    email,
	})
	if err != nil {
		s.countGatewayFailure("initiate_payment")
		return DepositInitiation{}, err
	}

	s.logger.Info("deposit initiated", "user_id", userID, "tx_ref", txRef, "amount", amount)
	return DepositInitiation{TxRef: txRef, Raw: resp.Raw}, nil
}

// WebhookEvent is the processor's push notification. Amount arrives in major
// units; the beneficiary is named by the payload itself, which the shared
// webhook secret authenticates.
type WebhookEvent struct {
	Status   string  `json:"status"`
	TxRef    string  `json:"tx_ref"`
	Amount   float64 `json:"amount"`
	Customer struct {
		UserID string `json:"userId"`
	} `json:"customer"`
}

// Confirmation reports a completed Unknown->Confirmed transition.
type Confirmation struct {
	TxRef            string
	Amount           int64
	NewBalance       int64
	AlreadyProcessed bool
}

// ConfirmWebhook applies a webhook-delivered deposit event. Replays of the
// same tx_ref return AlreadyProcessed without touching the balance.
func (s *Service) ConfirmWebhook(ctx context.Context, event WebhookEvent) (Confirmation, error) {
	if event.Status != gateway.StatusSuccessful {
		return Confirmation{}, ErrPaymentNotSuccessful
	}
	amount, err := money.FromMajorFloat(event.Amount)
	if err != nil || amount <= 0 {
		return Confirmation{}, ErrInvalidAmount
	}
	return s.credit(ctx, event.Customer.UserID, event.TxRef, amount)
}

// ConfirmVerify applies the client-pulled verification path. The wallet is
// resolved from the authenticated caller, never from request data, and the
// credit only happens when the processor confirms the charge.
func (s *Service) ConfirmVerify(ctx context.Context, userID, txRef string) (Confirmation, error) {
	verification, err := s.gw.VerifyTransaction(ctx, txRef)
	if err != nil {
		s.countGatewayFailure("verify_transaction")
		return Confirmation{}, err
	}
	if !verification.Verified {
		return Confirmation{}, ErrVerificationFailed
	}
	if verification.Amount <= 0 {
		return Confirmation{}, ErrInvalidAmount
	}
	return s.credit(ctx, userID, txRef, verification.Amount)
}

func (s *Service) credit(ctx context.Context, userID, txRef string, amount int64) (Confirmation, error) {
	entry, err := s.ledger.Credit(ctx, userID, txRef, amount)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTransaction) {
			if s.metrics != nil {
				s.metrics.DuplicatesSuppressed.Inc()
			}
			s.logger.Info("duplicate reconciliation suppressed", "user_id", userID, "tx_ref", txRef)
			return Confirmation{TxRef: txRef, AlreadyProcessed: true}, nil
		}
		return Confirmation{}, err
	}

	if s.metrics != nil {
		s.metrics.DepositsCredited.Inc()
	}
	s.logger.Info("wallet credited", "user_id", userID, "tx_ref", txRef, "amount", amount, "balance", entry.NewBalance)
	s.notify(ctx, notification.Message{
		Kind:        notification.KindDepositCredited,
		Destination: userID,
		Body:        fmt.Sprintf("Your wallet was credited with %s NGN", money.FormatMajor(amount)),
	})

	return Confirmation{TxRef: txRef, Amount: amount, NewBalance: entry.NewBalance}, nil
}

// WithdrawalInput captures a payout request for the authenticated caller.
type WithdrawalInput struct {
	UserID        string
	Amount        int64
	AccountBank   string
	AccountNumber string
}

// WithdrawalResult reports a completed payout.
type WithdrawalResult struct {
	Reference   string
	Amount      int64
	NewBalance  int64
	GatewayData json.RawMessage
	CompletedAt time.Time
}

// Withdraw checks the balance, initiates the transfer, and debits the ledger.
// The pre-transfer balance check is advisory; the authoritative check happens
// inside the ledger's Debit transaction. A debit failure after a successful
// transfer is fatal and must reach an operator.
func (s *Service) Withdraw(ctx context.Context, input WithdrawalInput) (WithdrawalResult, error) {
	if input.Amount <= 0 {
		return WithdrawalResult{}, ErrInvalidAmount
	}

	w, err := s.ledger.Get(ctx, input.UserID)
	if err != nil {
		return WithdrawalResult{}, err
	}
	if w.Balance < input.Amount {
		return WithdrawalResult{}, ledger.ErrInsufficientFunds
	}

	ref := s.refs.Withdrawal()
	transfer, err := s.gw.InitiateTransfer(ctx, gateway.TransferRequest{
		AccountBank:   input.AccountBank,
		AccountNumber: input.AccountNumber,
		Amount:        input.Amount,
		Currency:      w.Currency,
		Reference:     ref,
	})
	if err != nil {
		s.countGatewayFailure("initiate_transfer")
		return WithdrawalResult{}, err
	}

	entry, err := s.ledger.Debit(ctx, input.UserID, ref, input.Amount)
	if err != nil {
		// Funds already left on the processor side. There is no automated
		// compensation path; flag for manual reconciliation.
		if s.metrics != nil {
			s.metrics.Inconsistencies.Inc()
		}
		s.logger.Error("ledger debit failed after transfer succeeded",
			"user_id", input.UserID, "reference", ref, "amount", input.Amount, "error", err)
		s.notify(ctx, notification.Message{
			Kind:        notification.KindReconciliationAlert,
			Destination: "operations",
			Body:        fmt.Sprintf("transfer %s for user %s succeeded but debit failed: %v", ref, input.UserID, err),
		})
		return WithdrawalResult{}, fmt.Errorf("%w: transfer %s: %v", ErrReconciliationInconsistency, ref, err)
	}

	if s.metrics != nil {
		s.metrics.WithdrawalsCompleted.Inc()
	}
	s.logger.Info("withdrawal completed", "user_id", input.UserID, "reference", ref, "amount", input.Amount, "balance", entry.NewBalance)
	s.notify(ctx, notification.Message{
		Kind:        notification.KindWithdrawalCompleted,
		Destination: input.UserID,
		Body:        fmt.Sprintf("Your withdrawal of %s NGN is on its way", money.FormatMajor(input.Amount)),
	})

	return WithdrawalResult{
		Reference:   ref,
		Amount:      input.Amount,
		NewBalance:  entry.NewBalance,
		GatewayData: transfer.Raw,
		CompletedAt: time.Now().UTC(),
	}, nil
}

func (s *Service) notify(ctx context.Context, message notification.Message) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, message)
}

func (s *Service) countGatewayFailure(operation string) {
	if s.metrics != nil {
		s.metrics.GatewayFailures.WithLabelValues(operation).Inc()
	}
}
