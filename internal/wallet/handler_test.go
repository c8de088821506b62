package wallet

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/naira-vault/naira_vault/internal/config"
	"github.com/naira-vault/naira_vault/internal/gateway"
	"github.com/naira-vault/naira_vault/internal/ledger"
	"github.com/naira-vault/naira_vault/internal/logging"
	"github.com/naira-vault/naira_vault/internal/reconcile"
	"github.com/naira-vault/naira_vault/internal/reference"
)

const webhookSecret = "whsec_test"

func setupApp(t *testing.T) (*fiber.App, ledger.Ledger, string) {
	t.Helper()

	l := ledger.NewInMemory()
	userID := uuid.NewString()
	if _, err := l.CreateWallet(context.Background(), userID, "NGN"); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	cfg := config.Config{GatewayWebhookSecret: webhookSecret, DefaultCurrency: "NGN"}
	engine := reconcile.NewService(l, gateway.Static{}, reference.New(), nil, nil, logging.Discard(), "NGN")
	handler := NewHandler(engine, l, cfg, logging.Discard())

	app := fiber.New()
	app.Post("/wallet/webhook", handler.Webhook)
	// Test routes inject the principal the JWT middleware would set.
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("email", "ada@example.test")
		return c.Next()
	})
	app.Get("/wallet", handler.Balance)
	app.Get("/wallet/transactions", handler.Transactions)
	app.Post("/wallet/withdraw", handler.Withdraw)

	return app, l, userID
}

func webhookBody(userID, txRef string, amount float64, status string) string {
	payload := map[string]any{
		"status":   status,
		"tx_ref":   txRef,
		"amount":   amount,
		"customer": map[string]string{"userId": userID},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app, l, userID := setupApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/wallet/webhook", strings.NewReader(webhookBody(userID, "tx_sig", 500, "successful")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("verif-hash", "wrong-secret")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// No transaction regardless of payload contents.
	w, _ := l.Get(context.Background(), userID)
	if w.Balance != 0 {
		t.Fatalf("balance must stay 0, got %d", w.Balance)
	}
	history, _ := l.History(context.Background(), userID)
	if len(history) != 0 {
		t.Fatalf("expected no transactions, got %d", len(history))
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	app, _, userID := setupApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/wallet/webhook", strings.NewReader(webhookBody(userID, "tx_sig", 500, "successful")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestWebhookFundsOnceAcrossReplays(t *testing.T) {
	app, l, userID := setupApp(t)

	send := func() (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/wallet/webhook", strings.NewReader(webhookBody(userID, "tx_1", 500, "successful")))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set("verif-hash", webhookSecret)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return resp.StatusCode, string(body)
	}

	status, body := send()
	if status != fiber.StatusOK || !strings.Contains(body, "funded successfully") {
		t.Fatalf("first delivery: status %d body %s", status, body)
	}

	status, body = send()
	if status != fiber.StatusOK || !strings.Contains(body, "already processed") {
		t.Fatalf("second delivery: status %d body %s", status, body)
	}

	w, _ := l.Get(context.Background(), userID)
	if w.Balance != 50_000 {
		t.Fatalf("expected 50000 kobo (500 NGN once, not twice), got %d", w.Balance)
	}
}

func TestWebhookRejectsFailedStatus(t *testing.T) {
	app, l, userID := setupApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/wallet/webhook", strings.NewReader(webhookBody(userID, "tx_bad", 500, "failed")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("verif-hash", webhookSecret)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	w, _ := l.Get(context.Background(), userID)
	if w.Balance != 0 {
		t.Fatalf("balance must stay 0, got %d", w.Balance)
	}
}

func TestBalanceAndHistoryEndpoints(t *testing.T) {
	app, l, userID := setupApp(t)
	ctx := context.Background()

	l.Credit(ctx, userID, "tx_seed", 50_050)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/wallet", nil))
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	var balance BalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	resp.Body.Close()
	if balance.Balance != "500.50" || balance.Currency != "NGN" {
		t.Fatalf("unexpected balance response %+v", balance)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/wallet/transactions", nil))
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	var views []TransactionView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	resp.Body.Close()
	if len(views) != 1 || views[0].Type != ledger.KindDeposit || views[0].Amount != "500.50" {
		t.Fatalf("unexpected history %+v", views)
	}
}

func TestWithdrawEndpointInsufficientFunds(t *testing.T) {
	app, l, userID := setupApp(t)
	ledger.SeedBalance(l, userID, 100_000)

	req := httptest.NewRequest(fiber.MethodPost, "/wallet/withdraw",
		strings.NewReader(`{"amount": 1500, "account_bank": "044", "account_number": "0690000040"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	w, _ := l.Get(context.Background(), userID)
	if w.Balance != 100_000 {
		t.Fatalf("balance must stay 100000, got %d", w.Balance)
	}
}
