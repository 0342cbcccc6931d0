package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/auth"
	"github.com/vibewear/api/internal/config"
	"github.com/vibewear/api/pkg/response"
)

const (
	localUserID = "userId"
	localEmail  = "email"
	localName   = "name"
)

// AuthMiddleware resolves bearer tokens into the request's identity locals.
type AuthMiddleware struct {
	authn *auth.Authenticator
}

func NewAuthMiddleware(authn *auth.Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authn: authn}
}

// Authenticate rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := m.authn.FromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				return response.Unauthorized(c, "Missing authorization header")
			case errors.Is(err, auth.ErrMalformed):
				return response.Unauthorized(c, "Invalid authorization header format")
			case errors.Is(err, auth.ErrNotConfigured):
				return response.Unauthorized(c, "Authentication not configured")
			default:
				return response.Unauthorized(c, "Invalid or expired token")
			}
		}

		setIdentity(c, id)
		return c.Next()
	}
}

// OptionalAuthenticate attaches an identity when a valid token is present and
// lets anonymous shoppers through otherwise.
func (m *AuthMiddleware) OptionalAuthenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			if id, err := m.authn.FromHeader(header); err == nil {
				setIdentity(c, id)
			}
		}
		return c.Next()
	}
}

// RequireAdmin must run after an authenticating middleware.
func RequireAdmin(cfg *config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUserID(c) == "" {
			return response.Unauthorized(c, "Authentication required")
		}
		if !cfg.IsAdmin(GetUserEmail(c)) {
			return response.Forbidden(c, "Admin access required")
		}
		return c.Next()
	}
}

func setIdentity(c *fiber.Ctx, id *auth.Identity) {
	c.Locals(localUserID, id.UserID)
	c.Locals(localEmail, id.Email)
	c.Locals(localName, id.Name)
}

func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals(localUserID).(string); ok {
		return userID
	}
	return ""
}

func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals(localEmail).(string); ok {
		return email
	}
	return ""
}

func GetUserName(c *fiber.Ctx) string {
	if name, ok := c.Locals(localName).(string); ok {
		return name
	}
	return ""
}

// GetClientKey identifies the caller for quotas: the user id when signed in,
// the client IP otherwise.
func GetClientKey(c *fiber.Ctx) string {
	if userID := GetUserID(c); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.IP()
}
