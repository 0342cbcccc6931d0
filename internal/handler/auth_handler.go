package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/auth"
)

// AuthHandler answers Traefik ForwardAuth checks when the API runs behind
// the gateway.
type AuthHandler struct {
	authn *auth.Authenticator
}

func NewAuthHandler(authn *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authn: authn}
}

// Verify handles GET /auth/verify. A valid token yields 200 with X-User-*
// headers for the gateway to forward; anything else is a bare 401.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	id, err := h.authn.FromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	c.Set("X-User-Id", id.UserID)
	c.Set("X-User-Email", id.Email)
	if id.Name != "" {
		c.Set("X-User-Name", id.Name)
	}
	return c.SendStatus(fiber.StatusOK)
}
