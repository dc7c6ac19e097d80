package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-workflow/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-workflow/pkg/util"
)

// RequireSupervisor ensures the caller is a supervisor.
func RequireSupervisor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeSupervisor {
			return apperrors.NewForbidden("supervisor required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated (agent or supervisor).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
