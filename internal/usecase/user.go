package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/ErlanBelekov/auth-starter/internal/repository"
	"github.com/google/uuid"
)

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type avatarStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	PublicURL(key string) string
}

type AvatarUpload struct {
	UploadURL string
	AvatarURL string
}

// UserUsecase backs the profile settings screens.
type UserUsecase struct {
	users   repository.UserRepository
	tokens  repository.RefreshTokenRepository
	hasher  passwordHasher
	avatars avatarStore
}

// NewUserUsecase wires the profile operations. avatars may be nil, in which
// case CreateAvatarUpload returns domain.ErrStorageUnavailable.
func NewUserUsecase(users repository.UserRepository, tokens repository.RefreshTokenRepository, hasher passwordHasher, avatars avatarStore) *UserUsecase {
	return &UserUsecase{users: users, tokens: tokens, hasher: hasher, avatars: avatars}
}

func (u *UserUsecase) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Safe(), nil
}

func (u *UserUsecase) UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrBlankName
	}
	user, err := u.users.Update(ctx, userID, domain.UserUpdate{Name: &name})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user.Safe(), nil
}

// ChangePassword requires the current password and revokes every refresh
// token, signing the user out on all devices.
func (u *UserUsecase) ChangePassword(ctx context.Context, userID, current, next string) (domain.Notice, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}
	if !u.hasher.Matches(user.PasswordHash, current) {
		return "", domain.ErrInvalidCurrentPassword
	}
	if u.hasher.Matches(user.PasswordHash, next) {
		return "", domain.ErrNewPasswordSameAsCurrent
	}

	hash, err := u.hasher.Hash(next)
	if err != nil {
		return "", err
	}
	if _, err = u.users.Update(ctx, userID, domain.UserUpdate{PasswordHash: &hash}); err != nil {
		return "", fmt.Errorf("store new password: %w", err)
	}
	if _, err = u.tokens.DeleteAllForUser(ctx, userID); err != nil {
		return "", fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return domain.NoticePasswordChanged, nil
}

// CreateAvatarUpload presigns an upload slot for a new avatar and points the
// user's avatar reference at it right away. There is no confirm step: a
// client that never PUTs leaves the reference on a missing object until the
// next upload.
func (u *UserUsecase) CreateAvatarUpload(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	if u.avatars == nil {
		return nil, domain.ErrStorageUnavailable
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidAvatarType, contentType)
	}

	key := "avatars/" + userID + "/" + uuid.NewString() + ext
	uploadURL, err := u.avatars.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}

	avatarURL := u.avatars.PublicURL(key)
	if _, err = u.users.Update(ctx, userID, domain.UserUpdate{AvatarURL: &avatarURL}); err != nil {
		return nil, fmt.Errorf("store avatar url: %w", err)
	}
	return &AvatarUpload{UploadURL: uploadURL, AvatarURL: avatarURL}, nil
}
