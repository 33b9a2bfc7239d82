package auth

import (
	"context"
	"time"

	"github.com/phrazzld/reimburse-api/internal/domain"
)

// JWTService defines operations for managing JWT access tokens.
type JWTService interface {
	// GenerateToken creates a signed access token identifying user and carrying its role.
	// Returns the token and its expiry time.
	GenerateToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns ErrExpiredToken, ErrTokenNotYetValid or ErrInvalidToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated content of an access token.
type Claims struct {
	UserID   int64
	Username string
	Role     string

	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// Caller converts the claims into the identity used by the services.
func (c *Claims) Caller() domain.Caller {
	if c == nil {
		return domain.Anonymous()
	}
	return domain.Caller{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
	}
}
