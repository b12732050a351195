package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
)

// UserRepository is the credential store for user records. Token lookups
// take SHA-256 digests, never raw token values.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	FindByConfirmationToken(ctx context.Context, tokenHash string) (*domain.User, error)
	// FindByResetToken only matches tokens whose expiry is after now.
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	// DeleteUnconfirmedBefore spares accounts whose confirmation link is
	// still live at now.
	DeleteUnconfirmedBefore(ctx context.Context, cutoff, now time.Time) (int64, error)
}
