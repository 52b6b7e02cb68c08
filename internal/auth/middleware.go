package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/intercom-bridge/pkg/util"
)

const operatorKey = "auth_operator"

// Middleware validates bearer tokens on the operations API.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(operatorKey, claims.OperatorID)
	return c.Next()
}

// OperatorFromContext retrieves the authenticated operator id.
func OperatorFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(operatorKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok
}
