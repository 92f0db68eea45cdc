package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminTokenHeader 관리자 토큰 헤더
const AdminTokenHeader = "X-Admin-Token"

// AdminAuth checks the shared admin secret from X-Admin-Token or
// Authorization (an optional "Bearer " prefix is stripped). An empty token
// disables the check. Requests passing through are labelled GroupAdmin.
func AdminAuth(token string, log *zap.SugaredLogger) fiber.Handler {
	if token == "" {
		log.Warn("ADMIN_ACCESS_TOKEN not set; admin routes are not protected")
	}

	return func(c *fiber.Ctx) error {
		c.Locals(routeGroupKey, GroupAdmin)
		if token == "" {
			log.Debugw("Skipping admin auth", "path", c.OriginalURL())
			return c.Next()
		}

		provided := c.Get(AdminTokenHeader)
		if provided == "" {
			provided = c.Get(fiber.HeaderAuthorization)
		}
		provided = normalizeToken(provided)

		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			adminDeniedTotal.Inc()
			log.Debugw("Admin authorization failed",
				"path", c.OriginalURL(),
				"method", c.Method(),
				"has_header", provided != "",
			)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Forbidden",
				"message": "관리자 권한이 필요합니다.",
			})
		}

		return c.Next()
	}
}

func normalizeToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}
