package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectID   string
	SubjectType domain.SubjectType
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	tokens *TokenVerifier
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
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

	switch claims.Subject {
	case domain.SubjectTypeAgent, domain.SubjectTypeSupervisor:
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, &Principal{
		SubjectID:   claims.SubjectID,
		SubjectType: claims.Subject,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
