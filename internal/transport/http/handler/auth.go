package handler

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ErlanBelekov/auth-starter/internal/apierror"
	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/ErlanBelekov/auth-starter/internal/social"
	"github.com/ErlanBelekov/auth-starter/internal/token"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/middleware"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/respond"
	"github.com/ErlanBelekov/auth-starter/internal/usecase"
	"github.com/gin-gonic/gin"
)

const oauthStateBytes = 16

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Login(ctx context.Context, email, password string) (*usecase.Session, error)
	Register(ctx context.Context, in usecase.RegisterInput) (domain.Notice, error)
	ConfirmEmail(ctx context.Context, rawToken string) (domain.Notice, error)
	ResendConfirmation(ctx context.Context, email string) (domain.Notice, error)
	Refresh(ctx context.Context, rawToken string) (*usecase.Session, error)
	Logout(ctx context.Context, rawToken string) error
	LogoutAll(ctx context.Context, userID string) (domain.Notice, error)
	RequestPasswordReset(ctx context.Context, email string) (domain.Notice, error)
	ResetPassword(ctx context.Context, rawToken, newPassword string) (domain.Notice, error)
	SocialLogin(ctx context.Context, id domain.ExternalIdentity) (*usecase.Session, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	respond     *respond.Responder
	cookies     CookieConfig
	appBaseURL  string
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, r *respond.Responder, cookies CookieConfig, appBaseURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		respond:     r,
		cookies:     cookies,
		appBaseURL:  strings.TrimRight(appBaseURL, "/"),
		logger:      logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email    string  `json:"email"    binding:"required,email"`
	Password string  `json:"password" binding:"required,password"`
	Name     *string `json:"name"     binding:"omitempty,max=100"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"    binding:"required"`
	Password string `json:"password" binding:"required,password"`
}

type sessionResponse struct {
	User userResponse `json:"user"`
}

type refreshResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	sess, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.cookies.setSession(c, sess.AccessToken, sess.RefreshToken)
	c.JSON(http.StatusOK, sessionResponse{User: toUserResponse(sess.User)})
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	var name *string
	if req.Name != nil {
		if n := strings.TrimSpace(*req.Name); n != "" {
			name = &n
		}
	}

	notice, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     name,
	})
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Notice(c, http.StatusCreated, notice)
}

// POST /auth/logout
// The refresh token comes from the cookie, or from a Bearer header when there
// is no cookie. Cookie clients also send their access token as Bearer, so the
// header must not win here. Presenting none is a 401; presenting an unknown
// one still logs out.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(refreshTokenCookie)
	if raw == "" {
		raw = middleware.BearerToken(c)
	}
	if raw == "" {
		h.respond.Unauthorized(c)
		return
	}

	if err := h.authUsecase.Logout(c.Request.Context(), raw); err != nil {
		h.respond.Error(c, err)
		return
	}

	h.cookies.clearSession(c)
	h.respond.Notice(c, http.StatusOK, domain.NoticeLoggedOut)
}

// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	notice, err := h.authUsecase.LogoutAll(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.cookies.clearSession(c)
	h.respond.Notice(c, http.StatusOK, notice)
}

// GET /auth/confirm-email?token=<raw>
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	notice, err := h.authUsecase.ConfirmEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Notice(c, http.StatusOK, notice)
}

// POST /auth/resend-confirmation
// Always returns 200 to avoid revealing whether the email exists.
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	notice, err := h.authUsecase.ResendConfirmation(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "resend confirmation", "error", err)
	}

	h.respond.Notice(c, http.StatusOK, notice)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	sess, err := h.authUsecase.Refresh(c.Request.Context(), h.refreshToken(c))
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.cookies.setSession(c, sess.AccessToken, sess.RefreshToken)
	c.JSON(http.StatusOK, refreshResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User:         toUserResponse(sess.User),
	})
}

// POST /auth/forgot-password
// Always returns 200 to avoid revealing whether the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	notice, err := h.authUsecase.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "request password reset", "error", err)
	}

	h.respond.Notice(c, http.StatusOK, notice)
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond.Error(c, err)
		return
	}

	notice, err := h.authUsecase.ResetPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	h.respond.Notice(c, http.StatusOK, notice)
}

// GET /auth/:provider
func (h *AuthHandler) SocialRedirect(p social.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := token.NewOpaque(oauthStateBytes)
		if err != nil {
			h.respond.Error(c, err)
			return
		}

		h.cookies.set(c, oauthStateCookie, state, stateCookiePath(p), oauthStateMaxAge)
		c.Redirect(http.StatusTemporaryRedirect, p.AuthCodeURL(state))
	}
}

// GET /auth/:provider/callback?code=&state=
// Ends with a redirect to the frontend either way; failures carry the error
// code in the query string.
func (h *AuthHandler) SocialCallback(p social.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		expected, _ := c.Cookie(oauthStateCookie)
		h.cookies.clear(c, oauthStateCookie, stateCookiePath(p))

		state := c.Query("state")
		if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
			h.logger.WarnContext(ctx, "oauth state mismatch", "provider", p.Name())
			h.redirectWithError(c, apierror.CodeOAuthFailed)
			return
		}

		id, err := p.Identity(ctx, c.Query("code"))
		if err != nil {
			h.logger.ErrorContext(ctx, "oauth identity", "provider", p.Name(), "error", err)
			h.redirectWithError(c, apierror.CodeOAuthFailed)
			return
		}

		sess, err := h.authUsecase.SocialLogin(ctx, id)
		if err != nil {
			code := apierror.Classify(err).Code
			if code == apierror.CodeInternal {
				h.logger.ErrorContext(ctx, "social login", "provider", p.Name(), "error", err)
			}
			h.redirectWithError(c, code)
			return
		}

		h.cookies.setSession(c, sess.AccessToken, sess.RefreshToken)
		c.Redirect(http.StatusTemporaryRedirect, h.appBaseURL+"/")
	}
}

func (h *AuthHandler) redirectWithError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, h.appBaseURL+"/login?"+url.Values{"error": {code}}.Encode())
}

// refreshToken reads the refresh token from a Bearer header, falling back to
// the refresh_token cookie.
func (h *AuthHandler) refreshToken(c *gin.Context) string {
	if raw := middleware.BearerToken(c); raw != "" {
		return raw
	}
	raw, _ := c.Cookie(refreshTokenCookie)
	return raw
}

func stateCookiePath(p social.Provider) string {
	return "/auth/" + p.Name()
}
