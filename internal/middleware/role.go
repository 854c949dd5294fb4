package middleware

import (
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/voyagery/voyagery-api/internal/access"
	"github.com/voyagery/voyagery-api/internal/apperrors"
	"github.com/voyagery/voyagery-api/internal/models"
)

// RequireRole admits only users holding role. Other callers get 401 or 403 together with the
// path the client should navigate to instead.
func RequireRole(role models.Role) drift.HandlerFunc {
	return func(c *drift.Context) {
		user := GetUser(c)
		decision := access.Decide(false, user, role)
		if decision.Outcome == access.Render {
			c.Next()
			return
		}

		var httpErr *apperrors.HTTPError
		if user == nil {
			httpErr = apperrors.MapErrorToHTTP(apperrors.NotAuthenticated(""))
		} else {
			httpErr = apperrors.MapErrorToHTTP(apperrors.Forbidden("this area is for " + string(role) + "s"))
		}
		resp := httpErr.ToErrorResponse()
		resp.Redirect = decision.Location
		_ = c.JSON(httpErr.StatusCode, resp)
		c.Abort()
	}
}
