package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/naira-vault/naira_vault/internal/auth"
	"github.com/naira-vault/naira_vault/internal/middleware"
)

// RegisterAuthRoutes wires registration, login and profile endpoints. Login
// carries a per-IP limiter to slow credential stuffing.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, d Deps, jwtmw fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/login", middleware.RateLimit(d.Cache, "login", 5, time.Minute), h.Login)
	group.Get("/me", jwtmw, h.Me)
}
