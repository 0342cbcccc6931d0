package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/auth"
	"github.com/vibewear/api/pkg/response"
)

// Behind the gateway, Traefik ForwardAuth has already verified the token and
// passes the identity in X-User-* headers.

func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := gatewayIdentity(c)
		if id == nil {
			return response.Unauthorized(c, "Missing user identity headers")
		}
		setIdentity(c, id)
		return c.Next()
	}
}

func OptionalGatewayAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := gatewayIdentity(c); id != nil {
			setIdentity(c, id)
		}
		return c.Next()
	}
}

func gatewayIdentity(c *fiber.Ctx) *auth.Identity {
	userID := c.Get("X-User-Id")
	if userID == "" {
		return nil
	}
	return &auth.Identity{
		UserID: userID,
		Email:  c.Get("X-User-Email"),
		Name:   c.Get("X-User-Name"),
	}
}
