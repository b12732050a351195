package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/ErlanBelekov/auth-starter/internal/metrics"
	"github.com/ErlanBelekov/auth-starter/internal/repository"
	"github.com/ErlanBelekov/auth-starter/internal/token"
)

const (
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultConfirmTokenTTL = 24 * time.Hour
	defaultResetTokenTTL   = time.Hour

	// Accounts created through an external provider get a random password
	// nobody knows, until the user sets one through the reset flow.
	externalPasswordBytes = 24
)

type passwordHasher interface {
	Hash(password string) (string, error)
	Matches(hash, password string) bool
	CompareDummy(password string)
}

type accessTokenIssuer interface {
	IssueAccessToken(subjectID, email string) (string, error)
}

type notifier interface {
	SendConfirmation(ctx context.Context, to, rawToken string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, to, rawToken string, ttl time.Duration) error
}

type AuthConfig struct {
	RefreshTokenTTL time.Duration
	ConfirmTokenTTL time.Duration
	ResetTokenTTL   time.Duration
}

// Session is what a successful login or refresh hands back to the caller.
type Session struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

// AuthUsecase orchestrates the session lifecycle. It keeps no state between
// calls: every transition reads and writes the credential store.
type AuthUsecase struct {
	users    repository.UserRepository
	tokens   repository.RefreshTokenRepository
	notifier notifier
	issuer   accessTokenIssuer
	hasher   passwordHasher
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthUsecase(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	notifier notifier,
	issuer accessTokenIssuer,
	hasher passwordHasher,
	cfg AuthConfig,
) *AuthUsecase {
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if cfg.ConfirmTokenTTL <= 0 {
		cfg.ConfirmTokenTTL = defaultConfirmTokenTTL
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = defaultResetTokenTTL
	}
	return &AuthUsecase{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		issuer:   issuer,
		hasher:   hasher,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (u *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	u.now = now
	return u
}

// ValidateCredentials returns the user with secrets stripped, or nil when the
// email is unknown or the password is wrong. Correct credentials for an
// unconfirmed account yield ErrEmailNotConfirmed.
func (u *AuthUsecase) ValidateCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.hasher.CompareDummy(password)
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if !u.hasher.Matches(user.PasswordHash, password) {
		return nil, nil
	}
	if !user.EmailConfirmed {
		return nil, domain.ErrEmailNotConfirmed
	}
	return user.Safe(), nil
}

func (u *AuthUsecase) Login(ctx context.Context, email, password string) (sess *Session, err error) {
	defer func() { record("login", err) }()

	user, err := u.ValidateCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return u.issueSession(ctx, user)
}

// Register creates an unconfirmed account and emails the confirmation link.
// The existence pre-check only produces a friendlier error; the unique
// constraint on users.email is what actually rejects duplicates.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (_ domain.Notice, err error) {
	defer func() { record("register", err) }()

	email := domain.NormalizeEmail(in.Email)
	_, err = u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return "", domain.ErrEmailAlreadyExists
	case !errors.Is(err, domain.ErrUserNotFound):
		return "", fmt.Errorf("find user by email: %w", err)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return "", err
	}

	raw, digest, err := newSingleUseToken()
	if err != nil {
		return "", err
	}
	expiresAt := u.now().Add(u.cfg.ConfirmTokenTTL)

	created, err := u.users.Create(ctx, &domain.User{
		Email:                 email,
		PasswordHash:          hash,
		Name:                  in.Name,
		ConfirmationTokenHash: &digest,
		ConfirmationExpiresAt: &expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	if err = u.sendConfirmation(ctx, created.Email, raw); err != nil {
		return "", err
	}
	return domain.NoticeRegistered, nil
}

// ConfirmEmail exchanges a confirmation token for a confirmed account. An
// expired token is reported separately from an unknown one so the caller
// can offer to resend the link.
func (u *AuthUsecase) ConfirmEmail(ctx context.Context, rawToken string) (_ domain.Notice, err error) {
	defer func() { record("confirm_email", err) }()

	if rawToken == "" {
		return "", domain.ErrInvalidToken
	}

	user, err := u.users.FindByConfirmationToken(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", fmt.Errorf("find user by confirmation token: %w", err)
	}

	if exp := user.ConfirmationExpiresAt; exp != nil && !u.now().Before(*exp) {
		return "", domain.ErrConfirmationTokenExpired
	}

	confirmed := true
	_, err = u.users.Update(ctx, user.ID, domain.UserUpdate{
		EmailConfirmed:    &confirmed,
		ConfirmationToken: &domain.TokenUpdate{},
	})
	if err != nil {
		return "", fmt.Errorf("confirm user: %w", err)
	}
	return domain.NoticeEmailConfirmed, nil
}

// ResendConfirmation replaces the confirmation token of an unconfirmed
// account and emails it again. The notice never reveals whether the
// account exists.
func (u *AuthUsecase) ResendConfirmation(ctx context.Context, email string) (domain.Notice, error) {
	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NoticeConfirmationResent, nil
		}
		return domain.NoticeConfirmationResent, fmt.Errorf("find user by email: %w", err)
	}
	if user.EmailConfirmed {
		return domain.NoticeConfirmationResent, nil
	}

	raw, digest, err := newSingleUseToken()
	if err != nil {
		return domain.NoticeConfirmationResent, err
	}
	_, err = u.users.Update(ctx, user.ID, domain.UserUpdate{
		ConfirmationToken: &domain.TokenUpdate{Hash: digest, ExpiresAt: u.now().Add(u.cfg.ConfirmTokenTTL)},
	})
	if err != nil {
		return domain.NoticeConfirmationResent, fmt.Errorf("store confirmation token: %w", err)
	}

	return domain.NoticeConfirmationResent, u.sendConfirmation(ctx, user.Email, raw)
}

// Refresh rotates a refresh token: the presented token is consumed and a
// fresh access/refresh pair is issued. A token can be exchanged once.
func (u *AuthUsecase) Refresh(ctx context.Context, rawToken string) (sess *Session, err error) {
	defer func() { record("refresh", err) }()

	if rawToken == "" {
		return nil, domain.ErrUnauthorized
	}

	rt, err := u.tokens.Consume(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}
	if rt.Expired(u.now()) {
		return nil, domain.ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u.issueSession(ctx, user)
}

// ValidateRefreshToken returns the owner of a live refresh token without
// consuming it.
func (u *AuthUsecase) ValidateRefreshToken(ctx context.Context, rawToken string) (string, error) {
	rt, err := u.tokens.FindByValue(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", fmt.Errorf("find refresh token: %w", err)
	}
	if rt.Expired(u.now()) {
		return "", domain.ErrUnauthorized
	}
	return rt.UserID, nil
}

// Logout revokes one refresh token. Unknown tokens are not an error.
func (u *AuthUsecase) Logout(ctx context.Context, rawToken string) error {
	if err := u.tokens.Delete(ctx, token.Hash(rawToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	record("logout", nil)
	return nil
}

// LogoutAll revokes every refresh token the user holds.
func (u *AuthUsecase) LogoutAll(ctx context.Context, userID string) (domain.Notice, error) {
	if _, err := u.tokens.DeleteAllForUser(ctx, userID); err != nil {
		return "", fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	record("logout_all", nil)
	return domain.NoticeSessionsRevoked, nil
}

// RequestPasswordReset always yields the same notice so callers cannot probe
// for registered emails. Errors are returned for logging only.
func (u *AuthUsecase) RequestPasswordReset(ctx context.Context, email string) (_ domain.Notice, err error) {
	defer func() { record("request_password_reset", err) }()

	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.NoticePasswordResetRequested, nil
		}
		return domain.NoticePasswordResetRequested, fmt.Errorf("find user by email: %w", err)
	}

	raw, digest, err := newSingleUseToken()
	if err != nil {
		return domain.NoticePasswordResetRequested, err
	}
	_, err = u.users.Update(ctx, user.ID, domain.UserUpdate{
		ResetToken: &domain.TokenUpdate{Hash: digest, ExpiresAt: u.now().Add(u.cfg.ResetTokenTTL)},
	})
	if err != nil {
		return domain.NoticePasswordResetRequested, fmt.Errorf("store reset token: %w", err)
	}

	err = u.notifier.SendPasswordReset(ctx, user.Email, raw, u.cfg.ResetTokenTTL)
	metrics.EmailsSentTotal.WithLabelValues("password_reset", metrics.Outcome(err)).Inc()
	return domain.NoticePasswordResetRequested, err
}

// ResetPassword sets a new password using a live reset token. Unknown and
// expired tokens both yield ErrInvalidToken. Existing sessions are revoked.
func (u *AuthUsecase) ResetPassword(ctx context.Context, rawToken, newPassword string) (_ domain.Notice, err error) {
	defer func() { record("reset_password", err) }()

	if rawToken == "" {
		return "", domain.ErrInvalidToken
	}

	user, err := u.users.FindByResetToken(ctx, token.Hash(rawToken), u.now())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidToken
		}
		return "", fmt.Errorf("find user by reset token: %w", err)
	}

	if u.hasher.Matches(user.PasswordHash, newPassword) {
		return "", domain.ErrNewPasswordSameAsCurrent
	}

	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return "", err
	}
	_, err = u.users.Update(ctx, user.ID, domain.UserUpdate{
		PasswordHash: &hash,
		ResetToken:   &domain.TokenUpdate{},
	})
	if err != nil {
		return "", fmt.Errorf("store new password: %w", err)
	}

	if _, err = u.tokens.DeleteAllForUser(ctx, user.ID); err != nil {
		return "", fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return domain.NoticePasswordReset, nil
}

// FindOrCreateUser resolves an identity vouched for by an external provider:
// first by provider id, then by email (linking the provider), else a new
// confirmed account is created. The returned user has secrets stripped.
func (u *AuthUsecase) FindOrCreateUser(ctx context.Context, id domain.ExternalIdentity) (*domain.User, error) {
	user, err := u.findOrCreateUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Safe(), nil
}

func (u *AuthUsecase) findOrCreateUser(ctx context.Context, id domain.ExternalIdentity) (*domain.User, error) {
	id.Email = domain.NormalizeEmail(id.Email)
	if id.Email == "" {
		return nil, domain.ErrUnauthorized
	}

	if id.Provider != "" && id.ProviderID != "" {
		user, err := u.users.FindByProvider(ctx, id.Provider, id.ProviderID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("find user by provider: %w", err)
		}
	}

	user, err := u.users.FindByEmail(ctx, id.Email)
	if err == nil {
		return u.linkProvider(ctx, user, id)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	seed, err := token.NewOpaque(externalPasswordBytes)
	if err != nil {
		return nil, err
	}
	hash, err := u.hasher.Hash(seed)
	if err != nil {
		return nil, err
	}

	created, err := u.users.Create(ctx, &domain.User{
		Email:          id.Email,
		PasswordHash:   hash,
		Name:           optional(id.Name),
		EmailConfirmed: true,
		AvatarURL:      optional(id.AvatarURL),
		Provider:       optional(id.Provider),
		ProviderID:     optional(id.ProviderID),
	})
	if errors.Is(err, domain.ErrEmailAlreadyExists) {
		// Lost a race with a concurrent sign-in for the same email.
		existing, findErr := u.users.FindByEmail(ctx, id.Email)
		if findErr != nil {
			return nil, fmt.Errorf("find user by email: %w", findErr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// SocialLogin signs in a user vouched for by an external provider.
func (u *AuthUsecase) SocialLogin(ctx context.Context, id domain.ExternalIdentity) (sess *Session, err error) {
	defer func() { record("social_login", err) }()

	user, err := u.FindOrCreateUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.issueSession(ctx, user)
}

func (u *AuthUsecase) linkProvider(ctx context.Context, user *domain.User, id domain.ExternalIdentity) (*domain.User, error) {
	var upd domain.UserUpdate
	if user.Provider == nil && id.Provider != "" && id.ProviderID != "" {
		upd.Provider = &id.Provider
		upd.ProviderID = &id.ProviderID
	}
	if !user.EmailConfirmed {
		confirmed := true
		upd.EmailConfirmed = &confirmed
		upd.ConfirmationToken = &domain.TokenUpdate{}
	}
	if user.AvatarURL == nil && id.AvatarURL != "" {
		upd.AvatarURL = &id.AvatarURL
	}
	if upd == (domain.UserUpdate{}) {
		return user, nil
	}

	linked, err := u.users.Update(ctx, user.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("link provider: %w", err)
	}
	return linked, nil
}

func (u *AuthUsecase) issueSession(ctx context.Context, user *domain.User) (*Session, error) {
	access, err := u.issuer.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := token.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	err = u.tokens.Create(ctx, &domain.RefreshToken{
		TokenHash: token.Hash(refresh),
		UserID:    user.ID,
		ExpiresAt: u.now().Add(u.cfg.RefreshTokenTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{User: user.Safe(), AccessToken: access, RefreshToken: refresh}, nil
}

func (u *AuthUsecase) sendConfirmation(ctx context.Context, to, rawToken string) error {
	err := u.notifier.SendConfirmation(ctx, to, rawToken, u.cfg.ConfirmTokenTTL)
	metrics.EmailsSentTotal.WithLabelValues("confirmation", metrics.Outcome(err)).Inc()
	return err
}

func newSingleUseToken() (raw, digest string, err error) {
	raw, err = token.NewOpaque(token.SingleUseBytes)
	if err != nil {
		return "", "", err
	}
	return raw, token.Hash(raw), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func record(event string, err error) {
	metrics.AuthEventsTotal.WithLabelValues(event, metrics.Outcome(err)).Inc()
}
