package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/naira-vault/naira_vault/internal/auth"
	"github.com/naira-vault/naira_vault/internal/config"
	"github.com/naira-vault/naira_vault/internal/gateway"
	"github.com/naira-vault/naira_vault/internal/identity"
	"github.com/naira-vault/naira_vault/internal/ledger"
	"github.com/naira-vault/naira_vault/internal/metrics"
	"github.com/naira-vault/naira_vault/internal/middleware"
	"github.com/naira-vault/naira_vault/internal/notification"
	"github.com/naira-vault/naira_vault/internal/reconcile"
	"github.com/naira-vault/naira_vault/internal/reference"
	"github.com/naira-vault/naira_vault/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Storage backends. Without a database the service runs fully in memory,
	// which is only acceptable in dev.
	var ledgerBackend ledger.Ledger
	var identityRepo identity.Repository
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
	}

	// Payment processor client. Without a secret key there is nothing to
	// authenticate against, so dev falls back to the static processor.
	var processor gateway.Client
	if d.Cfg.GatewaySecretKey != "" {
		processor = gateway.NewHTTPClient(d.Cfg, d.Logger)
	} else {
		if !isDev(d.Cfg.AppEnv) {
			return fmt.Errorf("GATEWAY_SECRET_KEY is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		processor = gateway.Static{}
	}

	// Services and handlers
	identitySvc := identity.NewService(identityRepo)
	tokenSvc := auth.NewService(d.Cfg)
	notifier := notification.NewLoggerNotifier(d.Logger)
	engine := reconcile.NewService(ledgerBackend, processor, reference.New(), notifier, metrics.New(), d.Logger, d.Cfg.DefaultCurrency)

	authHandler := auth.NewHandler(identitySvc, tokenSvc, ledgerBackend, d.Cfg.DefaultCurrency)
	walletHandler := wallet.NewHandler(engine, ledgerBackend, d.Cfg, d.Logger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	jwtmw := middleware.JWTAuth(tokenSvc)
	RegisterAuthRoutes(api, authHandler, d, jwtmw)
	RegisterWalletRoutes(api, walletHandler, d, jwtmw)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
