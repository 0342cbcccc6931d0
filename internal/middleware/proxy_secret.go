package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/vibewear/api/internal/model"
)

// ProxySecret admits only callers that present the shared proxy secret. The
// proxy endpoints spend the provider credential, so the design pipeline is the
// only intended caller. Rejections use the flat proxy error body.
func ProxySecret(secret string) fiber.Handler {
	want := []byte(secret)

	return func(c *fiber.Ctx) error {
		got := []byte(c.Get(model.HeaderProxySecret))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
				"code":  "unauthorized",
			})
		}
		return c.Next()
	}
}
