package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByValue(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// Consume deletes the token and returns the deleted row in one statement,
	// so concurrent rotations of the same token cannot both succeed.
	Consume(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
