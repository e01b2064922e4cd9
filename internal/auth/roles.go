package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"flowtrack/backend/pkg/models"
)

const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeEmail   = "email"
)

// AllScopes defines the full set of scopes requested during login.
var AllScopes = []string{
	ScopeOpenID,
	ScopeProfile,
	ScopeEmail,
}

// RequireRole returns echo middleware that rejects requests whose
// authenticated actor does not hold one of the allowed roles. It must run
// after RequireAuth has placed the actor in the request context.
func RequireRole(allowed ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no authenticated user")
			}
			for _, role := range allowed {
				if actor.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
