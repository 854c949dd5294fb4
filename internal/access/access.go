// Package access holds the role policy for protected routes. The same decision drives the
// server-side RequireRole middleware and the client-side route guard in pkg/client.
package access

import "github.com/voyagery/voyagery-api/internal/models"

const (
	SelectRolePath       = "/select-role"
	MigrantDashboardPath = "/migrant/dashboard"
	GuideDashboardPath   = "/guide/dashboard"
)

type Outcome int

const (
	Loading Outcome = iota
	Render
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Route is a protected view. RequiredRole is empty for views open to any signed-in user.
type Route struct {
	Path         string
	RequiredRole models.Role
}

type Decision struct {
	Outcome  Outcome
	Location string
}

// HomePath is the landing view for a role, or the role picker when the role is unset.
func HomePath(role models.Role) string {
	switch role {
	case models.RoleMigrant:
		return MigrantDashboardPath
	case models.RoleGuide:
		return GuideDashboardPath
	}
	return SelectRolePath
}

// Decide evaluates a route against the resolved identity. While resolution is in flight it
// never redirects.
func Decide(resolving bool, user *models.User, required models.Role) Decision {
	if resolving {
		return Decision{Outcome: Loading}
	}
	if user == nil {
		return Decision{Outcome: Redirect, Location: SelectRolePath}
	}
	if required == "" || user.Role == required {
		return Decision{Outcome: Render}
	}
	// wrong role, not missing role: send them home instead of to an error page
	if user.Role.Other() == required {
		return Decision{Outcome: Redirect, Location: HomePath(user.Role)}
	}
	return Decision{Outcome: Redirect, Location: SelectRolePath}
}

// DecideRoute is Decide for a declared route.
func DecideRoute(resolving bool, user *models.User, route Route) Decision {
	return Decide(resolving, user, route.RequiredRole)
}
