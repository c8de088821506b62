package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/naira-vault/naira_vault/internal/middleware"
	"github.com/naira-vault/naira_vault/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints. The webhook receiver is the
// only unauthenticated route; it carries its own signature check plus a
// per-IP rate limit, everything else sits behind the JWT middleware.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, d Deps, jwtmw fiber.Handler) {
	group := r.Group("/wallet")

	group.Post("/webhook",
		middleware.RateLimit(d.Cache, "webhook", d.Cfg.WebhookBudget, time.Minute),
		h.Webhook,
	)

	group.Get("/", jwtmw, h.Balance)
	group.Get("/transactions", jwtmw, h.Transactions)
	group.Post("/deposit", jwtmw, h.Deposit)
	group.Post("/verify", jwtmw, h.Verify)
	group.Post("/withdraw", jwtmw, h.Withdraw)
}
