package auth

import "github.com/gofiber/fiber/v2"

// Config holds the auth middleware settings.
type Config struct {
	// ApiKey is the expected key. Empty disables authentication,
	// which is the local-development mode.
	ApiKey string
}

// HeaderName is the request header carrying the API key.
const HeaderName = "X-Api-Key"

// New returns middleware enforcing the API key on every request.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}
		if c.Get(HeaderName) != cfg.ApiKey {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing api key",
			})
		}
		return c.Next()
	}
}
