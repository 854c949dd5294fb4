package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleMigrant Role = "migrant"
	RoleGuide   Role = "guide"
)

// AllRoles returns all valid user roles.
func AllRoles() []Role {
	return []Role{RoleMigrant, RoleGuide}
}

// IsValidRole checks if a role is one of the recognized values. The empty role is not valid.
func IsValidRole(role Role) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// Other returns the opposite role, or "" for an unset or unknown role.
func (r Role) Other() Role {
	switch r {
	case RoleMigrant:
		return RoleGuide
	case RoleGuide:
		return RoleMigrant
	}
	return ""
}

const (
	ProviderGoogle = "google"
	ProviderDemo   = "demo"
)

type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"-"`
	Role       Role      `json:"role,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) HasRole() bool {
	return u.Role != ""
}
