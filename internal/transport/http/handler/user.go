package handler

import (
	"context"
	"net/http"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/middleware"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/respond"
	"github.com/ErlanBelekov/auth-starter/internal/usecase"
	"github.com/gin-gonic/gin"
)

type userUsecaser interface {
	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID, name string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) (domain.Notice, error)
	CreateAvatarUpload(ctx context.Context, userID, contentType string) (*usecase.AvatarUpload, error)
}

type UserHandler struct {
	userUsecase userUsecaser
	respond     *respond.Responder
	cookies     CookieConfig
}

func NewUserHandler(userUsecase userUsecaser, r *respond.Responder, cookies CookieConfig) *UserHandler {
	return &UserHandler{userUsecase: userUsecase, respond: r, cookies: cookies}
}

type updateProfileRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"     binding:"required,password"`
}

type avatarRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type avatarResponse struct {
	UploadURL string `json:"uploadUrl"`
	AvatarURL string `json:"avatarUrl"`
}

// GET /auth/me, GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userUsecase.Profile(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{User: toUserResponse(user)})
}

// PATCH /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	user, err := h.userUsecase.UpdateProfile(c.Request.Context(), c.GetString(middleware.ContextUserID), req.Name)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{User: toUserResponse(user)})
}

// POST /users/me/password
// Every session is revoked, including this one, so the cookies go too.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	notice, err := h.userUsecase.ChangePassword(c.Request.Context(), c.GetString(middleware.ContextUserID), req.CurrentPassword, req.NewPassword)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.cookies.clearSession(c)
	h.respond.Notice(c, http.StatusOK, notice)
}

// POST /users/me/avatar
func (h *UserHandler) CreateAvatarUpload(c *gin.Context) {
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	upload, err := h.userUsecase.CreateAvatarUpload(c.Request.Context(), c.GetString(middleware.ContextUserID), req.ContentType)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, avatarResponse{UploadURL: upload.UploadURL, AvatarURL: upload.AvatarURL})
}
