package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const webhookSecretHeader = "X-Webhook-Secret"

// WebhookSecret rejects requests whose X-Webhook-Secret header does not match
// the bcrypt hash. An empty hash disables the check.
func WebhookSecret(hash string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hash == "" {
			return c.Next()
		}
		secret := c.Get(webhookSecretHeader)
		if secret == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing webhook secret")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid webhook secret")
		}
		return c.Next()
	}
}
