package middleware

import (
	"net/url"
	"strings"

	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/core/server"
	"pixelpanic/internal/features/auth/domain"
	"pixelpanic/internal/features/auth/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const userLocalsKey = "auth.user"

// Session resolves the acting user on every request and stores it in Locals.
// Nothing is cached between requests. A resolver failure leaves the request anonymous.
func Session(resolver ports.Resolver, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)

		user, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			logger.Get().Error("Failed to resolve session",
				zap.String("ray_id", server.RayID(c)),
				zap.Error(err),
			)
			user = nil
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user resolved for this request, or nil when anonymous.
func CurrentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals(userLocalsKey).(*domain.User)
	return u
}

// RequireRole guards page routes: anonymous or mismatched actors are redirected to fallback
// before the route handler runs.
func RequireRole(role domain.Role, fallback string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentUser(c).Is(role) {
			return c.Redirect(fallback, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireAPIRole guards API routes with plain-text 401/403 answers.
func RequireAPIRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).SendString("Not authenticated")
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).SendString("Forbidden")
	}
}

// AdminGate redirects every request under one of prefixes to signInPath unless the actor is an admin.
// The original path and query travel along as callbackUrl. signInPath itself is never gated.
func AdminGate(prefixes []string, signInPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.EqualFold(path, signInPath) || !matchesPrefix(path, prefixes) {
			return c.Next()
		}

		if CurrentUser(c).Is(domain.RoleAdmin) {
			return c.Next()
		}

		target := path
		if q := string(c.Request().URI().QueryString()); q != "" {
			target += "?" + q
		}

		return c.Redirect(signInPath+"?callbackUrl="+url.QueryEscape(target), fiber.StatusFound)
	}
}

// matchesPrefix compares case-insensitively because fiber routes ignore case by default.
func matchesPrefix(path string, prefixes []string) bool {
	path = strings.ToLower(path)
	for _, p := range prefixes {
		p = strings.ToLower(strings.TrimSuffix(p, "/"))
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
