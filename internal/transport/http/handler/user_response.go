package handler

import (
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
)

type userResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           *string   `json:"name,omitempty"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	AvatarURL      *string   `json:"avatarUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		EmailConfirmed: u.EmailConfirmed,
		AvatarURL:      u.AvatarURL,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
