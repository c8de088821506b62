package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/naira-vault/naira_vault/internal/gateway"
	"github.com/naira-vault/naira_vault/internal/ledger"
	"github.com/naira-vault/naira_vault/internal/logging"
	"github.com/naira-vault/naira_vault/internal/notification"
	"github.com/naira-vault/naira_vault/internal/reference"
)

type stubGateway struct {
	mu            sync.Mutex
	transferCalls int
	transferErr   error
	verification  gateway.Verification
	verifyErr     error
}

func (g *stubGateway) InitiatePayment(_ context.Context, req gateway.PaymentRequest) (gateway.PaymentResponse, error) {
	return gateway.PaymentResponse{Status: "success", Raw: []byte(`{"status":"success"}`)}, nil
}

func (g *stubGateway) VerifyTransaction(_ context.Context, _ string) (gateway.Verification, error) {
	if g.verifyErr != nil {
		return gateway.Verification{}, g.verifyErr
	}
	return g.verification, nil
}

func (g *stubGateway) InitiateTransfer(_ context.Context, req gateway.TransferRequest) (gateway.TransferResult, error) {
	g.mu.Lock()
	g.transferCalls++
	g.mu.Unlock()
	if g.transferErr != nil {
		return gateway.TransferResult{}, g.transferErr
	}
	return gateway.TransferResult{Reference: req.Reference, Raw: []byte(`{"status":"success"}`)}, nil
}

func (g *stubGateway) transfers() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transferCalls
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) byKind(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, msg := range n.messages {
		if msg.Kind == kind {
			count++
		}
	}
	return count
}

func newTestService(t *testing.T, gw gateway.Client, notifier notification.Notifier) (*Service, ledger.Ledger, string) {
	t.Helper()
	l := ledger.NewInMemory()
	userID := uuid.NewString()
	if _, err := l.CreateWallet(context.Background(), userID, "NGN"); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	svc := NewService(l, gw, reference.New(), notifier, nil, logging.Discard(), "NGN")
	return svc, l, userID
}

func webhookFor(userID, txRef string, amount float64) WebhookEvent {
	event := WebhookEvent{Status: "successful", TxRef: txRef, Amount: amount}
	event.Customer.UserID = userID
	return event
}

func TestWebhookReplayCreditsOnce(t *testing.T) {
	svc, l, userID := newTestService(t, &stubGateway{}, nil)
	ctx := context.Background()

	event := webhookFor(userID, "tx_1", 500)

	first, err := svc.ConfirmWebhook(ctx, event)
	if err != nil {
		t.Fatalf("first webhook: %v", err)
	}
	if first.AlreadyProcessed {
		t.Fatal("first delivery must not report already processed")
	}
	if first.NewBalance != 50_000 {
		t.Fatalf("expected balance 50000 kobo, got %d", first.NewBalance)
	}

	for i := 0; i < 5; i++ {
		replay, err := svc.ConfirmWebhook(ctx, event)
		if err != nil {
			t.Fatalf("replay %d: %v", i, err)
		}
		if !replay.AlreadyProcessed {
			t.Fatalf("replay %d must report already processed", i)
		}
	}

	w, _ := l.Get(ctx, userID)
	if w.Balance != 50_000 {
		t.Fatalf("expected balance 50000 after replays, got %d", w.Balance)
	}
	history, _ := l.History(ctx, userID)
	if len(history) != 1 {
		t.Fatalf("expected one transaction record, got %d", len(history))
	}
}

func TestWebhookRejectsNonSuccessfulStatus(t *testing.T) {
	svc, l, userID := newTestService(t, &stubGateway{}, nil)
	ctx := context.Background()

	event := webhookFor(userID, "tx_failed", 500)
	event.Status = "failed"

	if _, err := svc.ConfirmWebhook(ctx, event); !errors.Is(err, ErrPaymentNotSuccessful) {
		t.Fatalf("expected ErrPaymentNotSuccessful, got %v", err)
	}
	w, _ := l.Get(ctx, userID)
	if w.Balance != 0 {
		t.Fatalf("balance must stay 0, got %d", w.Balance)
	}
}

func TestWebhookRejectsInvalidAmount(t *testing.T) {
	svc, _, userID := newTestService(t, &stubGateway{}, nil)
	ctx := context.Background()

	if _, err := svc.ConfirmWebhook(ctx, webhookFor(userID, "tx_neg", -10)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.ConfirmWebhook(ctx, webhookFor(userID, "tx_zero", 0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestWebhookUnknownWallet(t *testing.T) {
	svc, _, _ := newTestService(t, &stubGateway{}, nil)
	ctx := context.Background()

	if _, err := svc.ConfirmWebhook(ctx, webhookFor(uuid.NewString(), "tx_ghost", 500)); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestVerifyPathCreditsOnVerified(t *testing.T) {
	gw := &stubGateway{verification: gateway.Verification{Verified: true, Amount: 50_000, RawStatus: "successful"}}
	svc, l, userID := newTestService(t, gw, nil)
	ctx := context.Background()

	confirmation, err := svc.ConfirmVerify(ctx, userID, "tx_pull")
	if err != nil {
		t.Fatalf("verify path: %v", err)
	}
	if confirmation.NewBalance != 50_000 {
		t.Fatalf("expected balance 50000, got %d", confirmation.NewBalance)
	}

	w, _ := l.Get(ctx, userID)
	if w.Balance != 50_000 {
		t.Fatalf("expected balance 50000, got %d", w.Balance)
	}
}

func TestVerifyPathFailsClosed(t *testing.T) {
	gw := &stubGateway{verification: gateway.Verification{Verified: false, RawStatus: "pending"}}
	svc, l, userID := newTestService(t, gw, nil)
	ctx := context.Background()

	if _, err := svc.ConfirmVerify(ctx, userID, "tx_pending"); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	w, _ := l.Get(ctx, userID)
	if w.Balance != 0 {
		t.Fatalf("balance must stay 0, got %d", w.Balance)
	}
}

func TestVerifyPathSurfacesGatewayFailure(t *testing.T) {
	gw := &stubGateway{verifyErr: gateway.ErrUnavailable}
	svc, _, userID := newTestService(t, gw, nil)

	if _, err := svc.ConfirmVerify(context.Background(), userID, "tx_down"); !errors.Is(err, gateway.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestConcurrentWebhookAndVerifyCreditOnce(t *testing.T) {
	gw := &stubGateway{verification: gateway.Verification{Verified: true, Amount: 50_000, RawStatus: "successful"}}
	svc, l, userID := newTestService(t, gw, nil)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = svc.ConfirmWebhook(ctx, webhookFor(userID, "tx_race", 500))
			} else {
				_, err = svc.ConfirmVerify(ctx, userID, "tx_race")
			}
			if err != nil {
				t.Errorf("attempt %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	w, _ := l.Get(ctx, userID)
	if w.Balance != 50_000 {
		t.Fatalf("expected exactly one credit of 50000, got balance %d", w.Balance)
	}
	history, _ := l.History(ctx, userID)
	if len(history) != 1 {
		t.Fatalf("expected one transaction record, got %d", len(history))
	}
}

func TestDepositRoundTrip(t *testing.T) {
	svc, l, userID := newTestService(t, &stubGateway{}, nil)
	ctx := context.Background()

	before, _ := l.Get(ctx, userID)

	initiation, err := svc.InitiateDeposit(ctx, userID, "ada@example.test", 50_000, "")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if initiation.TxRef == "" {
		t.Fatal("expected a tx_ref")
	}

	// Balance untouched until confirmation arrives.
	mid, _ := l.Get(ctx, userID)
	if mid.Balance != before.Balance {
		t.Fatalf("initiation must not change balance, got %d", mid.Balance)
	}

	if _, err := svc.ConfirmWebhook(ctx, webhookFor(userID, initiation.TxRef, 500)); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	after, _ := l.Get(ctx, userID)
	if after.Balance != before.Balance+50_000 {
		t.Fatalf("expected balance %d, got %d", before.Balance+50_000, after.Balance)
	}
}

func TestWithdrawInsufficientFundsSkipsGateway(t *testing.T) {
	gw := &stubGateway{}
	svc, l, userID := newTestService(t, gw, nil)
	ctx := context.Background()
	ledger.SeedBalance(l, userID, 100_000)

	_, err := svc.Withdraw(ctx, WithdrawalInput{
		UserID:        userID,
		Amount:        150_000,
		AccountBank:   "044",
		AccountNumber: "0690000040",
	})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if gw.transfers() != 0 {
		t.Fatalf("no transfer call expected, got %d", gw.transfers())
	}
	w, _ := l.Get(ctx, userID)
	if w.Balance != 100_000 {
		t.Fatalf("balance must stay 100000, got %d", w.Balance)
	}
}

func TestWithdrawDebitsExactly(t *testing.T) {
	gw := &stubGateway{}
	svc, l, userID := newTestService(t, gw, nil)
	ctx := context.Background()
	ledger.SeedBalance(l, userID, 100_000)

	res, err := svc.Withdraw(ctx, WithdrawalInput{
		UserID:        userID,
		Amount:        30_000,
		AccountBank:   "044",
		AccountNumber: "0690000040",
	})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.NewBalance != 70_000 {
		t.Fatalf("expected balance 70000, got %d", res.NewBalance)
	}
	if gw.transfers() != 1 {
		t.Fatalf("expected one transfer call, got %d", gw.transfers())
	}

	history, _ := l.History(ctx, userID)
	if len(history) != 1 || history[0].Kind != ledger.KindWithdrawal {
		t.Fatalf("expected one withdrawal record, got %+v", history)
	}
	if history[0].Amount != 30_000 {
		t.Fatalf("expected recorded amount 30000, got %d", history[0].Amount)
	}
}

func TestWithdrawTransferFailureLeavesBalance(t *testing.T) {
	gw := &stubGateway{transferErr: gateway.ErrUnavailable}
	svc, l, userID := newTestService(t, gw, nil)
	ctx := context.Background()
	ledger.SeedBalance(l, userID, 100_000)

	_, err := svc.Withdraw(ctx, WithdrawalInput{
		UserID:        userID,
		Amount:        30_000,
		AccountBank:   "044",
		AccountNumber: "0690000040",
	})
	if !errors.Is(err, gateway.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	w, _ := l.Get(ctx, userID)
	if w.Balance != 100_000 {
		t.Fatalf("failed transfer must not debit, got %d", w.Balance)
	}
}

// brokenLedger simulates a crash between the external transfer and the debit.
type brokenLedger struct {
	ledger.Ledger
}

func (b *brokenLedger) Debit(_ context.Context, _, _ string, _ int64) (ledger.Entry, error) {
	return ledger.Entry{}, errors.New("write failed")
}

func TestWithdrawDebitFailureRaisesInconsistency(t *testing.T) {
	inner := ledger.NewInMemory()
	userID := uuid.NewString()
	inner.CreateWallet(context.Background(), userID, "NGN")
	ledger.SeedBalance(inner, userID, 100_000)

	notifier := &recordingNotifier{}
	svc := NewService(&brokenLedger{Ledger: inner}, &stubGateway{}, reference.New(), notifier, nil, logging.Discard(), "NGN")

	_, err := svc.Withdraw(context.Background(), WithdrawalInput{
		UserID:        userID,
		Amount:        30_000,
		AccountBank:   "044",
		AccountNumber: "0690000040",
	})
	if !errors.Is(err, ErrReconciliationInconsistency) {
		t.Fatalf("expected ErrReconciliationInconsistency, got %v", err)
	}
	if notifier.byKind(notification.KindReconciliationAlert) != 1 {
		t.Fatal("expected an operator alert")
	}
}

func TestInitiateDepositValidation(t *testing.T) {
	svc, _, userID := newTestService(t, &stubGateway{}, nil)
	ctx := context.Background()

	if _, err := svc.InitiateDeposit(ctx, userID, "ada@example.test", 0, "NGN"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.InitiateDeposit(ctx, uuid.NewString(), "ada@example.test", 100, "NGN"); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestDepositNotificationSent(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _, userID := newTestService(t, &stubGateway{}, notifier)

	if _, err := svc.ConfirmWebhook(context.Background(), webhookFor(userID, "tx_notice", 500)); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if notifier.byKind(notification.KindDepositCredited) != 1 {
		t.Fatal("expected a deposit notification")
	}

	// Replay suppresses the notification along with the credit.
	if _, err := svc.ConfirmWebhook(context.Background(), webhookFor(userID, "tx_notice", 500)); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if notifier.byKind(notification.KindDepositCredited) != 1 {
		t.Fatal("replay must not notify again")
	}
}
