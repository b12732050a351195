package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/auth-starter/config"
	"github.com/ErlanBelekov/auth-starter/internal/apierror"
	"github.com/ErlanBelekov/auth-starter/internal/email"
	"github.com/ErlanBelekov/auth-starter/internal/health"
	"github.com/ErlanBelekov/auth-starter/internal/i18n"
	"github.com/ErlanBelekov/auth-starter/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/auth-starter/internal/log"
	"github.com/ErlanBelekov/auth-starter/internal/metrics"
	"github.com/ErlanBelekov/auth-starter/internal/social"
	"github.com/ErlanBelekov/auth-starter/internal/social/github"
	"github.com/ErlanBelekov/auth-starter/internal/storage"
	"github.com/ErlanBelekov/auth-starter/internal/token"
	httptransport "github.com/ErlanBelekov/auth-starter/internal/transport/http"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/handler"
	"github.com/ErlanBelekov/auth-starter/internal/transport/http/respond"
	"github.com/ErlanBelekov/auth-starter/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("validators: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	translator, err := i18n.New(logger)
	if err != nil {
		stop()
		log.Fatalf("i18n: %v", err)
	}
	if cfg.LocalesDir != "" {
		go func() {
			if err := translator.Watch(ctx, cfg.LocalesDir); err != nil {
				logger.Error("watch locales", "dir", cfg.LocalesDir, "error", err)
			}
		}()
	}

	userRepo := postgres.NewUserRepository(pool)
	refreshRepo := postgres.NewRefreshTokenRepository(pool)

	issuer := token.NewIssuer([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	hasher := usecase.NewBcryptHasher(cfg.BcryptCost)
	notifier := email.NewNotifier(email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger), cfg.AppBaseURL)

	authUsecase := usecase.NewAuthUsecase(userRepo, refreshRepo, notifier, issuer, hasher, usecase.AuthConfig{
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		ConfirmTokenTTL: cfg.ConfirmTokenTTL,
		ResetTokenTTL:   cfg.ResetTokenTTL,
	})

	readiness := []health.Dependency{{Name: "postgres", Pinger: pool}}

	var userUsecase *usecase.UserUsecase
	if cfg.AvatarUploadsEnabled() {
		avatars, err := storage.NewAvatarStore(ctx, storage.Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		if err != nil {
			stop()
			log.Fatalf("avatar storage: %v", err)
		}
		userUsecase = usecase.NewUserUsecase(userRepo, refreshRepo, hasher, avatars)
		readiness = append(readiness, health.Dependency{Name: "avatars", Pinger: avatars})
	} else {
		// A nil interface, not a nil *AvatarStore, so uploads report the
		// feature as unavailable.
		userUsecase = usecase.NewUserUsecase(userRepo, refreshRepo, hasher, nil)
	}

	var providers []social.Provider
	if cfg.GitHubEnabled() {
		providers = append(providers, github.New(github.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			CallbackURL:  cfg.GitHubCallbackURL,
		}))
	}

	responder := respond.New(apierror.NewBuilder(translator), logger)
	cookies := handler.CookieConfig{
		Domain:     cfg.CookieDomain,
		Secure:     cfg.IsProduction(),
		RefreshTTL: cfg.RefreshTokenTTL,
	}

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, readiness...)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(httptransport.RouterConfig{
			CORSOrigins:  cfg.CORSOrigins,
			RateLimitRPS: cfg.RateLimitRPS,
			Production:   cfg.IsProduction(),
		}, httptransport.Deps{
			Logger:      logger,
			Responder:   responder,
			Tokens:      issuer,
			Languages:   translator,
			AuthHandler: handler.NewAuthHandler(authUsecase, responder, cookies, cfg.AppBaseURL, logger),
			UserHandler: handler.NewUserHandler(userUsecase, responder, cookies),
			Providers:   providers,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

