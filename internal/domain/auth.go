package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUserNotFound             = errors.New("user not found")
	ErrRefreshTokenNotFound     = errors.New("refresh token not found")
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrEmailNotConfirmed        = errors.New("email is not confirmed")
	ErrEmailAlreadyExists       = errors.New("email already exists")
	ErrEmailAlreadyConfirmed    = errors.New("email is already confirmed")
	ErrInvalidToken             = errors.New("token is invalid or expired")
	ErrConfirmationTokenExpired = errors.New("confirmation token has expired")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrNewPasswordSameAsCurrent = errors.New("new password must differ from the current one")
	ErrInvalidCurrentPassword   = errors.New("current password is incorrect")
	ErrConflict                 = errors.New("record conflicts with an existing one")
	ErrInvalidAvatarType        = errors.New("invalid avatar content type")
	ErrStorageUnavailable       = errors.New("avatar storage is not configured")
	ErrOAuthFailed              = errors.New("external sign-in failed")
	ErrBlankName                = errors.New("name must not be blank")
)

// NormalizeEmail is the canonical form an address is stored and looked up
// in. users.email is unique byte for byte, so every path must agree on it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type User struct {
	ID             string
	Email          string
	PasswordHash   string
	Name           *string
	EmailConfirmed bool

	ConfirmationTokenHash *string
	ConfirmationExpiresAt *time.Time
	ResetTokenHash        *string
	ResetExpiresAt        *time.Time

	AvatarURL  *string
	Provider   *string
	ProviderID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Safe returns a copy of u without the password hash or any token digests.
func (u *User) Safe() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	cp.ConfirmationTokenHash = nil
	cp.ResetTokenHash = nil
	return &cp
}

// TokenUpdate sets or clears a single-use token pair on a user.
// The zero value clears both the digest and the expiry.
type TokenUpdate struct {
	Hash      string
	ExpiresAt time.Time
}

func (t TokenUpdate) Clear() bool { return t.Hash == "" }

// UserUpdate is a partial update: nil fields are left untouched.
type UserUpdate struct {
	Name           *string
	PasswordHash   *string
	EmailConfirmed *bool
	AvatarURL      *string
	Provider       *string
	ProviderID     *string

	ConfirmationToken *TokenUpdate
	ResetToken        *TokenUpdate
}

type RefreshToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ExternalIdentity is a profile vouched for by a third-party identity provider.
type ExternalIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	AvatarURL  string
}
