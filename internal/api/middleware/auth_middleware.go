package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/postflow/configs"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

// CronSecret only lets requests through that carry
// "Authorization: Bearer <CRON_SECRET>". With no secret configured every
// request passes.
func (m *AuthMiddleware) CronSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.cfg.CronSecret == "" {
			return c.Next()
		}

		token, found := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.CronSecret)) != 1 {
			log.Printf("Rejected sweep request from %s", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing cron secret",
			})
		}

		return c.Next()
	}
}
