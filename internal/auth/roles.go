package auth

import (
	"github.com/gofiber/fiber/v2"
)

// SelfMatcher reports whether the request targets the principal's own account.
type SelfMatcher func(c *fiber.Ctx, principal *Principal) bool

// RequireAdmin ensures the caller's stored role is admin.
func (g *Guard) RequireAdmin() fiber.Handler {
	return g.require(true, nil)
}

// RequireSelfOrAdmin lets admins through and other callers only for their own account.
func (g *Guard) RequireSelfOrAdmin(self SelfMatcher) fiber.Handler {
	return g.require(true, self)
}

// RequireAuthenticated admits any active account. Ownership checks are left to the handler.
func (g *Guard) RequireAuthenticated() fiber.Handler {
	return g.require(false, nil)
}

func (g *Guard) require(requireAdmin bool, self SelfMatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return g.deny(c, ErrNoToken)
		}
		isSelf := self != nil && self(c, principal)
		if err := Authorize(principal, requireAdmin, isSelf); err != nil {
			return g.deny(c, err)
		}
		g.record(OutcomeAllowed)
		return c.Next()
	}
}

// SelfByUsernameParam matches when the named route param equals the caller's username.
func SelfByUsernameParam(param string) SelfMatcher {
	return func(c *fiber.Ctx, principal *Principal) bool {
		return c.Params(param) != "" && c.Params(param) == principal.Username
	}
}

// SelfByIDParam matches when the named route param equals the caller's user id.
func SelfByIDParam(param string) SelfMatcher {
	return func(c *fiber.Ctx, principal *Principal) bool {
		return c.Params(param) != "" && c.Params(param) == principal.UserID
	}
}
