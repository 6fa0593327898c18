package model

import "github.com/google/uuid"

type Role string

const (
	RoleClient   Role = "client"
	RoleAE       Role = "ae"
	RoleVerifier Role = "verifier"
	RoleAdmin    Role = "admin"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleClient, RoleAE, RoleVerifier, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

// Principal is the authenticated actor attached to every request.
type Principal struct {
	UserID uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
}

func (p Principal) IsClient() bool   { return p.Role == RoleClient }
func (p Principal) IsAE() bool       { return p.Role == RoleAE }
func (p Principal) IsVerifier() bool { return p.Role == RoleVerifier }
func (p Principal) IsAdmin() bool    { return p.Role == RoleAdmin }
