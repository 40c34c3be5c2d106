package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/faraddouglas/conecsa-api/internal/domain"
	apperrors "github.com/faraddouglas/conecsa-api/pkg/util"
)

// RoleRequirement is the set of roles allowed on a route. Empty means unrestricted.
type RoleRequirement map[domain.Role]struct{}

// Roles builds a RoleRequirement from the given roles.
func Roles(roles ...domain.Role) RoleRequirement {
	req := make(RoleRequirement, len(roles))
	for _, role := range roles {
		req[role] = struct{}{}
	}
	return req
}

// Empty reports whether the requirement places no restriction.
func (r RoleRequirement) Empty() bool {
	return len(r) == 0
}

// Allows reports whether role satisfies the requirement.
func (r RoleRequirement) Allows(role domain.Role) bool {
	if r.Empty() {
		return true
	}
	_, ok := r[role]
	return ok
}

// RequireRoles checks the authenticated principal against req.
// It must run after AuthMiddleware.Handle.
func RequireRoles(req RoleRequirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if req.Empty() {
			return c.Next()
		}
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !req.Allows(principal.User.Role) {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
