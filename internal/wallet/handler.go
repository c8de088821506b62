package wallet

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/naira-vault/naira_vault/internal/config"
	"github.com/naira-vault/naira_vault/internal/gateway"
	"github.com/naira-vault/naira_vault/internal/ledger"
	"github.com/naira-vault/naira_vault/internal/money"
	"github.com/naira-vault/naira_vault/internal/reconcile"
)

// Handler exposes the wallet HTTP surface. Balance reads go straight to the
// ledger; every mutation goes through the reconciliation engine.
type Handler struct {
	engine *reconcile.Service
	ledger ledger.Ledger
	cfg    config.Config
	logger *slog.Logger
}

// NewHandler constructs a wallet handler.
func NewHandler(engine *reconcile.Service, l ledger.Ledger, cfg config.Config, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, ledger: l, cfg: cfg, logger: logger}
}

// Balance returns the authenticated user's wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	w, err := h.ledger.Get(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			h.logger.Error("wallet missing for registered user", "user_id", uid)
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(BalanceResponse{
		Balance:  money.FormatMajor(w.Balance),
		Currency: w.Currency,
	})
}

// Transactions returns the authenticated user's transaction history.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	history, err := h.ledger.History(c.UserContext(), uid)
	if err != nil {
		if errors.Is(err, ledger.ErrWalletNotFound) {
			return fiber.NewError(http.StatusNotFound, "wallet not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	views := make([]TransactionView, 0, len(history))
	for _, record := range history {
		views = append(views, TransactionView{
			TxRef:     record.TxRef,
			Type:      record.Kind,
			Amount:    money.FormatMajor(record.Amount),
			Status:    record.Status,
			CreatedAt: record.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.Status(http.StatusOK).JSON(views)
}

// Deposit initiates a hosted charge for the authenticated user.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	email, _ := c.Locals("email").(string)

	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	amount, err := money.FromMajorFloat(req.Amount)
	if err != nil || amount <= 0 {
		return fiber.NewError(http.StatusBadRequest, "amount must be greater than zero")
	}

	initiation, err := h.engine.InitiateDeposit(c.UserContext(), uid, email, amount, req.Currency)
	if err != nil {
		return h.mapError(err)
	}

	return c.Status(http.StatusOK).JSON(DepositResponse{
		Message: "Payment initiated. Complete the payment in the provided URL.",
		Data:    initiation.Raw,
		TxRef:   initiation.TxRef,
	})
}

// Webhook receives the processor's push notifications. The signature gate
// runs before the payload is interpreted.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	if !gateway.ValidSignature(c.Get(gateway.SignatureHeader), h.cfg.GatewayWebhookSecret) {
		return fiber.NewError(http.StatusUnauthorized, "Unauthorized")
	}

	var event reconcile.WebhookEvent
	if err := c.BodyParser(&event); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	confirmation, err := h.engine.ConfirmWebhook(c.UserContext(), event)
	if err != nil {
		if errors.Is(err, reconcile.ErrPaymentNotSuccessful) {
			return fiber.NewError(http.StatusBadRequest, "Payment not successful")
		}
		return h.mapError(err)
	}

	if confirmation.AlreadyProcessed {
		return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Transaction already processed"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Wallet funded successfully"})
}

// Verify confirms a charge by reference for the authenticated caller. Unlike
// the webhook path, the beneficiary is always the caller's own wallet.
func (h *Handler) Verify(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.TxRef == "" {
		return fiber.NewError(http.StatusBadRequest, "Transaction reference (tx_ref) is required.")
	}

	confirmation, err := h.engine.ConfirmVerify(c.UserContext(), uid, req.TxRef)
	if err != nil {
		if errors.Is(err, reconcile.ErrVerificationFailed) {
			return fiber.NewError(http.StatusBadRequest, "Payment verification failed or payment was not successful.")
		}
		return h.mapError(err)
	}

	if confirmation.AlreadyProcessed {
		return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Payment already processed."})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Payment verified and wallet funded successfully."})
}

// Withdraw pays out to a bank account and debits the wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.AccountBank == "" || req.AccountNumber == "" {
		return fiber.NewError(http.StatusBadRequest, "account_bank and account_number are required")
	}

	amount, err := money.FromMajorFloat(req.Amount)
	if err != nil || amount <= 0 {
		return fiber.NewError(http.StatusBadRequest, "amount must be greater than zero")
	}

	result, err := h.engine.Withdraw(c.UserContext(), reconcile.WithdrawalInput{
		UserID:        uid,
		Amount:        amount,
		AccountBank:   req.AccountBank,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		return h.mapError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":   "Withdrawal successful",
		"reference": result.Reference,
		"balance":   money.FormatMajor(result.NewBalance),
		"data":      result.GatewayData,
	})
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, reconcile.ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "Insufficient balance")
	case errors.Is(err, ledger.ErrWalletNotFound):
		return fiber.NewError(http.StatusNotFound, "Wallet not found")
	case errors.Is(err, gateway.ErrUnavailable):
		return fiber.NewError(http.StatusBadGateway, "Payment gateway unavailable, please retry")
	case errors.Is(err, reconcile.ErrReconciliationInconsistency):
		// Money moved at the processor without a matching ledger write. The
		// engine has already alerted; tell the caller to stop retrying.
		return fiber.NewError(http.StatusInternalServerError, "Withdrawal is being reconciled, contact support")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
