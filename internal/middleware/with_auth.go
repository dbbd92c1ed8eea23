package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/codeassess-api/internal/utils"
)

// Roles understood by the auth guards. Admins pass every recruiter check.
const (
	AuthRoleAny       = "any"
	AuthRoleCandidate = "candidate"
	AuthRoleRecruiter = "recruiter"
	AuthRoleAdmin     = "admin"
)

// AuthOptions configures WithAuth and Guard.
type AuthOptions struct {
	Role           string
	AllowAnonymous bool
}

// WithAuth wraps a handler with authentication and role checks on the identity set by JWTProtected.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}
	allowAnonymous := opts.AllowAnonymous && role == AuthRoleAny

	return func(c *fiber.Ctx) error {
		if !hasUser(c) {
			if allowAnonymous {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if !roleAllowed(role, normalizeRoleValue(c.Locals("user_role"))) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}

// Guard is WithAuth as group middleware.
func Guard(opts AuthOptions) fiber.Handler {
	return WithAuth(func(c *fiber.Ctx) error { return c.Next() }, opts)
}

func hasUser(c *fiber.Ctx) bool {
	switch id := c.Locals("user_id").(type) {
	case uint:
		return id > 0
	case int:
		return id > 0
	default:
		return false
	}
}

func normalizeRoleValue(value interface{}) string {
	role, _ := value.(string)
	return strings.ToLower(strings.TrimSpace(role))
}

func roleAllowed(required, current string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleRecruiter:
		return current == AuthRoleRecruiter || current == AuthRoleAdmin
	case AuthRoleCandidate:
		// Tokens without a role claim belong to candidates.
		return current == AuthRoleCandidate || current == ""
	default:
		return current == required
	}
}
