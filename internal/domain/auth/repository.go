package auth

import (
	"context"

	"stockward/internal/core/id"
)

// UserRepository is the persistence contract for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists the mutable fields under optimistic locking.
	Update(ctx context.Context, user *User) error

	// Delete removes the account; its refresh tokens cascade.
	Delete(ctx context.Context, userID id.ID) error

	// List returns matching users plus the unpaginated total.
	List(ctx context.Context, filter UserFilter) ([]User, int, error)

	// Exists reports whether the email is already registered.
	Exists(ctx context.Context, email string) (bool, error)
}

// TokenRepository stores refresh tokens, always by hash.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// CleanupExpiredTokens removes dead tokens and returns how many.
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// UserFilter narrows ListUsers. A nil IsActive means both states.
type UserFilter struct {
	Search   string
	IsActive *bool
	Role     string
	Limit    int
	Offset   int
}
