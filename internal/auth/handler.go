package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/naira-vault/naira_vault/internal/identity"
	"github.com/naira-vault/naira_vault/internal/ledger"
)

// Handler exposes registration, login and profile endpoints. Registration
// provisions the user's wallet: exactly one per user, balance zero, in the
// configured default currency.
type Handler struct {
	ids      *identity.Service
	tokens   *Service
	ledger   ledger.Ledger
	currency string
}

// NewHandler constructs an auth handler.
func NewHandler(ids *identity.Service, tokens *Service, l ledger.Ledger, currency string) *Handler {
	if currency == "" {
		currency = "NGN"
	}
	return &Handler{ids: ids, tokens: tokens, ledger: l, currency: currency}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user and a zero-balance wallet.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.ids.Register(c.UserContext(), identity.Credentials{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	w, err := h.ledger.CreateWallet(c.UserContext(), user.ID, h.currency)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "wallet provisioning failed")
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "User registered successfully",
		"user_id":  user.ID,
		"email":    user.Email,
		"currency": w.Currency,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login validates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password are required")
	}

	user, err := h.ids.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	token, err := h.tokens.IssueToken(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":      token,
		"expires_in": h.tokens.TokenTTL(),
	})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := h.ids.Get(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "user not found")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":    user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	})
}
