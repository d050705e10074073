package jwt

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Locals keys set by NewAuthMiddleware.
const (
	LocalUserID   = "userId"
	LocalIsAdmin  = "isAdmin"
	LocalTokenID  = "tokenId"
	LocalTokenExp = "tokenExp"
)

// RevocationChecker answers whether a token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NewAuthMiddleware returns a Fiber middleware that validates Bearer JWT (HS256).
// On success sets the subject, admin flag, jti and expiry into c.Locals.
// revoked may be nil.
func NewAuthMiddleware(secret, expectedIssuer string, revoked RevocationChecker, log *zap.Logger) fiber.Handler {
	secretBytes := []byte(secret)
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "missing Authorization header"})
		}
		// Support both "Bearer <token>" and "<token>" (no prefix).
		tokenStr := strings.TrimSpace(authHeader)
		if parts := strings.SplitN(tokenStr, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenStr = strings.TrimSpace(parts[1])
		}
		if tokenStr == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "empty token"})
		}
		claims, err := parse(tokenStr, secretBytes, expectedIssuer)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
		}
		if revoked != nil && claims.ID != "" {
			gone, err := revoked.IsRevoked(c.UserContext(), claims.ID)
			if err != nil {
				log.Error("revocation lookup failed", zap.Error(err))
				return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"message": "authentication temporarily unavailable"})
			}
			if gone {
				return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": "token revoked"})
			}
		}
		c.Locals(LocalUserID, claims.Subject)
		c.Locals(LocalIsAdmin, claims.IsAdmin)
		c.Locals(LocalTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Locals(LocalTokenExp, claims.ExpiresAt.Time)
		}
		return c.Next()
	}
}

// RequireAdmin must run after NewAuthMiddleware.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if isAdmin, _ := c.Locals(LocalIsAdmin).(bool); !isAdmin {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"message": "admin only"})
		}
		return c.Next()
	}
}
