package middleware

import (
	"strings"

	"recipe-vault/domain"
	"recipe-vault/internal/api/presenters"
	"recipe-vault/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type (
	Middleware interface {
		AuthMiddleware(jwtService jwt.JWTService) fiber.Handler
		CORSMiddleware() fiber.Handler
	}

	middleware struct {
		allowOrigins string
	}
)

func NewMiddleware(allowOrigins string) Middleware {
	return &middleware{allowOrigins: allowOrigins}
}

// AuthMiddleware reads a bearer token and stores the caller's id in
// c.Locals("user_id").
func (m *middleware) AuthMiddleware(jwtService jwt.JWTService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, domain.ErrTokenNotFound)
		}

		userID, err := jwtService.GetUserIDByToken(strings.TrimSpace(token))
		if err != nil {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, err)
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     m.allowOrigins,
		AllowMethods:     "GET,POST,PATCH,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: m.allowOrigins != "*",
	})
}
