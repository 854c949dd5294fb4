package client

import (
	"github.com/voyagery/voyagery-api/internal/access"
	"github.com/voyagery/voyagery-api/internal/models"
	"github.com/voyagery/voyagery-api/pkg/dto"
)

// Guard decides whether a tab may render a protected view, using the same policy the server
// applies to role-restricted endpoints.
type Guard struct {
	session *TabSession
}

func NewGuard(session *TabSession) *Guard {
	return &Guard{session: session}
}

// Check never performs I/O. Until the tab has resolved once it answers Loading.
func (g *Guard) Check(route access.Route) access.Decision {
	state, identity := g.session.Snapshot()
	resolving := state == Uninitialized || state == Resolving
	return access.DecideRoute(resolving, toModelUser(identity), route)
}

func toModelUser(u *dto.UserResponse) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Provider: u.Provider,
		Role:     models.Role(u.Role),
	}
}
