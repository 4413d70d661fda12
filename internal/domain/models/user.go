package models

import (
	"context"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/types"
	"github.com/google/uuid"
)

// User is the caller identity resolved from a bearer token.
type User struct {
	ID   uuid.UUID      `json:"id"`
	Role types.UserRole `json:"role"`
}

func AnonymousUser() *User {
	return &User{}
}

func (u *User) IsAnonymous() bool {
	return u.ID == uuid.Nil
}

func (u *User) IsAdmin() bool {
	return u.Role == types.RoleAdmin
}

func (u *User) IsDriver() bool {
	return u.Role == types.RoleDriver
}

// Owns reports whether the user may act on resources of the given owner.
// Admins own everything.
func (u *User) Owns(ownerID uuid.UUID) bool {
	return u.IsAdmin() || (!u.IsAnonymous() && u.ID == ownerID)
}

type userCtxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

func UserFromContext(ctx context.Context) *User {
	if u, ok := ctx.Value(userCtxKey{}).(*User); ok && u != nil {
		return u
	}
	return AnonymousUser()
}
