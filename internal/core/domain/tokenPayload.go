package domain

import (
	"github.com/google/uuid"
)

type UserRole string

const (
	Admin   UserRole = "admin"
	AppUser UserRole = "appuser"
)

type TokenPayload struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Role   UserRole
}

func (p *TokenPayload) IsAdmin() bool {
	return p != nil && p.Role == Admin
}

// CanAccess reports whether the caller owns the resource or is an admin.
func (p *TokenPayload) CanAccess(ownerID uuid.UUID) bool {
	return p != nil && (p.Role == Admin || p.UserID == ownerID)
}
