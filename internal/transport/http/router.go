package httptransport

import (
	"log/slog"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/social"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/handler"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/middleware"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/respond"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type RouterConfig struct {
	CORSOrigins  []string
	RateLimitRPS float64
	Production   bool
}

type Deps struct {
	Logger      *slog.Logger
	Responder   *respond.Responder
	Tokens      middleware.AccessTokenParser
	Languages   middleware.LanguageResolver
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	// Providers are the enabled external sign-in providers. May be empty.
	Providers []social.Provider
}

func NewRouter(cfg RouterConfig, d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(cfg.Production))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(sloggin.New(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Language(d.Languages))

	authMW := middleware.Auth(d.Tokens, d.Responder)
	limit := middleware.RateLimit(cfg.RateLimitRPS, d.Responder)

	auth := r.Group("/auth", limit)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/confirm-email", d.AuthHandler.ConfirmEmail)
	auth.POST("/resend-confirmation", d.AuthHandler.ResendConfirmation)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/forgot-password", d.AuthHandler.ForgotPassword)
	auth.POST("/reset-password", d.AuthHandler.ResetPassword)
	auth.GET("/me", authMW, d.UserHandler.Me)
	auth.POST("/logout-all", authMW, d.AuthHandler.LogoutAll)

	for _, p := range d.Providers {
		auth.GET("/"+p.Name(), d.AuthHandler.SocialRedirect(p))
		auth.GET("/"+p.Name()+"/callback", d.AuthHandler.SocialCallback(p))
	}

	users := r.Group("/users/me", authMW)
	users.GET("", d.UserHandler.Me)
	users.PATCH("", d.UserHandler.UpdateProfile)
	users.POST("/password", d.UserHandler.ChangePassword)
	users.POST("/avatar", d.UserHandler.CreateAvatarUpload)

	return r
}
