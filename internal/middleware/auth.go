package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// AdminKey guards operator endpoints with a static key header. The shop has
// no customer accounts, so this is the only authentication surface.
func AdminKey(expectedKey string) fiber.Handler {
	expected := []byte(expectedKey)
	return func(c *fiber.Ctx) error {
		key := c.Get("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), expected) != 1 {
			return c.Status(403).JSON(fiber.Map{"error": "invalid admin key"})
		}
		return c.Next()
	}
}
