package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/ErlanBelekov/auth-starter/internal/token"
	"github.com/ErlanBelekov/auth-starter/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "Correct-Horse-1"
	newPassword  = "Battery-Staple-2"
)

var hasher = usecase.NewBcryptHasher(4)

type fixture struct {
	users  *memUsers
	tokens *memTokens
	mail   *recordingNotifier
	issuer *token.Issuer
	clock  *clock
	uc     *usecase.AuthUsecase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:  newMemUsers(),
		tokens: newMemTokens(),
		mail:   newRecordingNotifier(),
		clock:  &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.users.now = f.clock.Now
	f.issuer = token.NewIssuer([]byte("test-secret-that-is-long-enough-for-hs256"), 15*time.Minute).WithClock(f.clock.Now)
	f.uc = usecase.NewAuthUsecase(f.users, f.tokens, f.mail, f.issuer, hasher, usecase.AuthConfig{
		RefreshTokenTTL: 7 * 24 * time.Hour,
		ConfirmTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   time.Hour,
	}).WithClock(f.clock.Now)
	return f
}

func (f *fixture) register(t *testing.T, email, password string) {
	t.Helper()
	notice, err := f.uc.Register(context.Background(), usecase.RegisterInput{Email: email, Password: password})
	require.NoError(t, err)
	require.Equal(t, domain.NoticeRegistered, notice)
}

func (f *fixture) registerConfirmed(t *testing.T, email, password string) {
	t.Helper()
	f.register(t, email, password)
	_, err := f.uc.ConfirmEmail(context.Background(), f.mail.confirmationToken(email))
	require.NoError(t, err)
}

func (f *fixture) login(t *testing.T, email, password string) *usecase.Session {
	t.Helper()
	sess, err := f.uc.Login(context.Background(), email, password)
	require.NoError(t, err)
	return sess
}

func TestLogin_ConfirmedUserGetsSession(t *testing.T) {
	f := newFixture(t)
	f.registerConfirmed(t, testEmail, testPassword)

	sess := f.login(t, testEmail, testPassword)

	assert.Equal(t, testEmail, sess.User.Email)
	assert.Empty(t, sess.User.PasswordHash)
	assert.Nil(t, sess.User.ConfirmationTokenHash)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, 1, f.tokens.count())

	claims, err := f.issuer.ParseAccessToken(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.Subject)
	assert.Equal(t, testEmail, claims.Email)
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.registerConfirmed(t, testEmail, testPassword)

	_, wrongPassword := f.uc.Login(context.Background(), testEmail, "Wrong-Password-9")
	_, unknownEmail := f.uc.Login(context.Background(), "nobody@example.com", testPassword)

	assert.ErrorIs(t, wrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, domain.ErrInvalidCredentials)
	assert.Equal(t, 0, f.tokens.count())
}

func TestLogin_UnconfirmedAccount(t *testing.T) {
	f := newFixture(t)
	f.register(t, testEmail, testPassword)

	_, err := f.uc.Login(context.Background(), testEmail, testPassword)
	assert.ErrorIs(t, err, domain.ErrEmailNotConfirmed)

	// Without the right password the account state is not revealed.
	_, err = f.uc.Login(context.Background(), testEmail, "Wrong-Password-9")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, 0, f.tokens.count())
}

func TestValidateCredentials(t *testing.T) {
	f := newFixture(t)
	f.registerConfirmed(t, testEmail, testPassword)
	ctx := context.Background()

	user, err := f.uc.ValidateCredentials(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Empty(t, user.PasswordHash)

	user, err = f.uc.ValidateCredentials(ctx, testEmail, "nope")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = f.uc.ValidateCredentials(ctx, "nobody@example.com", testPassword)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestRegister_StoresHashesNotSecrets(t *testing.T) {
	f := newFixture(t)
	f.register(t, testEmail, testPassword)

	stored := f.users.get(testEmail)
	raw := f.mail.confirmationToken(testEmail)

	assert.False(t, stored.EmailConfirmed)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.True(t, hasher.Matches(stored.PasswordHash, testPassword))
	require.NotNil(t, stored.ConfirmationTokenHash)
	assert.Equal(t, token.Hash(raw), *stored.ConfirmationTokenHash)
	assert.NotEqual(t, raw, *stored.ConfirmationTokenHash)
	require.NotNil(t, stored.ConfirmationExpiresAt)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), *stored.ConfirmationExpiresAt)
	assert.Equal(t, 0, f.tokens.count(), "registration must not open a session")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, testEmail, testPassword)

	_, err := f.uc.Register(context.Background(), usecase.RegisterInput{Email: testEmail, Password: newPassword})

	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.True(t, hasher.Matches(f.users.get(testEmail).PasswordHash, testPassword))
}

// blindUsers hides existing users from the pre-check, the way a concurrent
// registration that commits in between would.
type blindUsers struct{ *memUsers }

func (blindUsers) FindByEmail(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func TestRegister_LosesRaceOnUniqueConstraint(t *testing.T) {
	f := newFixture(t)
	f.register(t, testEmail, testPassword)

	uc := usecase.NewAuthUsecase(blindUsers{f.users}, f.tokens, f.mail, f.issuer, hasher, usecase.AuthConfig{})
	_, err := uc.Register(context.Background(), usecase.RegisterInput{Email: testEmail, Password: newPassword})

	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegister_NotifierFailure(t *testing.T) {
	f := newFixture(t)
	smtpDown := errors.New("smtp down")
	f.mail.err = smtpDown

	_, err := f.uc.Register(context.Background(), usecase.RegisterInput{Email: testEmail, Password: testPassword})

	assert.ErrorIs(t, err, smtpDown)
}

func TestConfirmEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, testEmail, testPassword)
	raw := f.mail.confirmationToken(testEmail)

	_, err := f.uc.ConfirmEmail(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = f.uc.ConfirmEmail(ctx, "not-a-real-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	notice, err := f.uc.ConfirmEmail(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeEmailConfirmed, notice)

	stored := f.users.get(testEmail)
	assert.True(t, stored.EmailConfirmed)
	assert.Nil(t, stored.ConfirmationTokenHash)
	assert.Nil(t, stored.ConfirmationExpiresAt)

	_, err = f.uc.ConfirmEmail(ctx, raw)
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "confirmation tokens are single use")
}

func TestConfirmEmail_ExpiredThenResent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, testEmail, testPassword)
	stale := f.mail.confirmationToken(testEmail)

	f.clock.Advance(24 * time.Hour)
	_, err := f.uc.ConfirmEmail(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrConfirmationTokenExpired)
	assert.False(t, f.users.get(testEmail).EmailConfirmed)

	notice, err := f.uc.ResendConfirmation(ctx, testEmail)
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeConfirmationResent, notice)

	fresh := f.mail.confirmationToken(testEmail)
	require.NotEqual(t, stale, fresh)

	_, err = f.uc.ConfirmEmail(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = f.uc.ConfirmEmail(ctx, fresh)
	require.NoError(t, err)
	assert.True(t, f.users.get(testEmail).EmailConfirmed)
}

func TestResendConfirmation_NeverRevealsAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	sentBefore := f.mail.confirmationToken(testEmail)

	notice, err := f.uc.ResendConfirmation(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeConfirmationResent, notice)
	assert.Empty(t, f.mail.confirmationToken("nobody@example.com"))

	notice, err = f.uc.ResendConfirmation(ctx, testEmail)
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeConfirmationResent, notice)
	assert.Equal(t, sentBefore, f.mail.confirmationToken(testEmail), "confirmed accounts get no new link")
}

func TestRefresh_RotatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	first := f.login(t, testEmail, testPassword)

	second, err := f.uc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Empty(t, second.User.PasswordHash)
	assert.Equal(t, 1, f.tokens.count())

	_, err = f.uc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "a refresh token can be exchanged once")

	_, err = f.uc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_RejectsExpiredAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	sess := f.login(t, testEmail, testPassword)

	_, err := f.uc.Refresh(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.clock.Advance(7 * 24 * time.Hour)
	_, err = f.uc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_DeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	sess := f.login(t, testEmail, testPassword)

	require.NoError(t, f.users.Delete(ctx, sess.User.ID))

	_, err := f.uc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	sess := f.login(t, testEmail, testPassword)

	userID, err := f.uc.ValidateRefreshToken(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, userID)
	assert.Equal(t, 1, f.tokens.count(), "validation does not consume the token")

	_, err = f.uc.ValidateRefreshToken(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.clock.Advance(8 * 24 * time.Hour)
	_, err = f.uc.ValidateRefreshToken(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	phone := f.login(t, testEmail, testPassword)
	laptop := f.login(t, testEmail, testPassword)

	require.NoError(t, f.uc.Logout(ctx, phone.RefreshToken))
	require.NoError(t, f.uc.Logout(ctx, phone.RefreshToken), "logout is idempotent")
	require.NoError(t, f.uc.Logout(ctx, "never-issued"))

	_, err := f.uc.Refresh(ctx, phone.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.Refresh(ctx, laptop.RefreshToken)
	assert.NoError(t, err, "other sessions survive")
}

func TestLogoutAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	f.registerConfirmed(t, "grace@example.com", testPassword)
	a := f.login(t, testEmail, testPassword)
	b := f.login(t, testEmail, testPassword)
	other := f.login(t, "grace@example.com", testPassword)

	notice, err := f.uc.LogoutAll(ctx, a.User.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeSessionsRevoked, notice)

	for _, raw := range []string{a.RefreshToken, b.RefreshToken} {
		_, err = f.uc.Refresh(ctx, raw)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	}
	_, err = f.uc.Refresh(ctx, other.RefreshToken)
	assert.NoError(t, err)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	notice, err := f.uc.RequestPasswordReset(context.Background(), "nobody@example.com")

	require.NoError(t, err)
	assert.Equal(t, domain.NoticePasswordResetRequested, notice)
	assert.Empty(t, f.mail.resetToken("nobody@example.com"))
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)
	sess := f.login(t, testEmail, testPassword)

	notice, err := f.uc.RequestPasswordReset(ctx, testEmail)
	require.NoError(t, err)
	assert.Equal(t, domain.NoticePasswordResetRequested, notice)

	raw := f.mail.resetToken(testEmail)
	stored := f.users.get(testEmail)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, token.Hash(raw), *stored.ResetTokenHash)

	_, err = f.uc.ResetPassword(ctx, raw, testPassword)
	assert.ErrorIs(t, err, domain.ErrNewPasswordSameAsCurrent)

	notice, err = f.uc.ResetPassword(ctx, raw, newPassword)
	require.NoError(t, err)
	assert.Equal(t, domain.NoticePasswordReset, notice)

	_, err = f.uc.Login(ctx, testEmail, testPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	f.login(t, testEmail, newPassword)

	_, err = f.uc.Refresh(ctx, sess.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "reset revokes existing sessions")

	_, err = f.uc.ResetPassword(ctx, raw, "Yet-Another-3")
	assert.ErrorIs(t, err, domain.ErrInvalidToken, "reset tokens are single use")
	assert.Nil(t, f.users.get(testEmail).ResetTokenHash)
}

func TestResetPassword_ExpiredOrUnknownToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registerConfirmed(t, testEmail, testPassword)

	_, err := f.uc.ResetPassword(ctx, "", newPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = f.uc.ResetPassword(ctx, "unknown", newPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = f.uc.RequestPasswordReset(ctx, testEmail)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	_, err = f.uc.ResetPassword(ctx, f.mail.resetToken(testEmail), newPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	f.login(t, testEmail, testPassword)
}

func TestFindOrCreateUser(t *testing.T) {
	ctx := context.Background()
	identity := domain.ExternalIdentity{
		Provider:   "github",
		ProviderID: "42",
		Email:      testEmail,
		Name:       "Ada",
		AvatarURL:  "https://avatars.example.com/42.png",
	}

	t.Run("missing email", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.FindOrCreateUser(ctx, domain.ExternalIdentity{Provider: "github", ProviderID: "42"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("creates a confirmed account", func(t *testing.T) {
		f := newFixture(t)

		user, err := f.uc.FindOrCreateUser(ctx, identity)
		require.NoError(t, err)
		assert.True(t, user.EmailConfirmed)
		assert.Empty(t, user.PasswordHash)
		require.NotNil(t, user.Name)
		assert.Equal(t, "Ada", *user.Name)
		require.NotNil(t, user.ProviderID)
		assert.Equal(t, "42", *user.ProviderID)

		again, err := f.uc.FindOrCreateUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("finds by provider id after email change", func(t *testing.T) {
		f := newFixture(t)
		user, err := f.uc.FindOrCreateUser(ctx, identity)
		require.NoError(t, err)

		moved := identity
		moved.Email = "ada@newmail.example.com"
		found, err := f.uc.FindOrCreateUser(ctx, moved)
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("links an existing password account", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, testEmail, testPassword)

		user, err := f.uc.FindOrCreateUser(ctx, identity)
		require.NoError(t, err)

		stored := f.users.get(testEmail)
		assert.Equal(t, stored.ID, user.ID)
		assert.True(t, stored.EmailConfirmed)
		assert.Nil(t, stored.ConfirmationTokenHash)
		require.NotNil(t, stored.Provider)
		assert.Equal(t, "github", *stored.Provider)
		require.NotNil(t, stored.AvatarURL)
		assert.Equal(t, identity.AvatarURL, *stored.AvatarURL)

		f.login(t, testEmail, testPassword)
	})

	t.Run("matches an existing account regardless of email case", func(t *testing.T) {
		f := newFixture(t)
		f.registerConfirmed(t, testEmail, testPassword)

		shouty := identity
		shouty.Email = "  Ada@Example.COM "
		user, err := f.uc.FindOrCreateUser(ctx, shouty)
		require.NoError(t, err)

		assert.Equal(t, f.users.get(testEmail).ID, user.ID)
		assert.Equal(t, testEmail, user.Email)
		assert.Len(t, f.users.users, 1)
	})
}

func TestEmailCaseIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Ada@Example.com", testPassword)

	assert.Equal(t, testEmail, f.users.get(testEmail).Email, "stored lowercased")

	_, err := f.uc.Register(ctx, usecase.RegisterInput{Email: "ADA@example.com", Password: newPassword})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = f.uc.ConfirmEmail(ctx, f.mail.confirmationToken(testEmail))
	require.NoError(t, err)
	f.login(t, "ADA@EXAMPLE.COM", testPassword)

	_, err = f.uc.RequestPasswordReset(ctx, "Ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, f.mail.resetToken(testEmail))
}

func TestResendConfirmation_OutlivesUnconfirmedSweep(t *testing.T) {
	const grace = 72 * time.Hour
	ctx := context.Background()
	sweep := func(f *fixture) int64 {
		n, err := f.users.DeleteUnconfirmedBefore(ctx, f.clock.Now().Add(-grace), f.clock.Now())
		require.NoError(t, err)
		return n
	}

	t.Run("resent near the cutoff", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, testEmail, testPassword)

		f.clock.Advance(71 * time.Hour)
		_, err := f.uc.ResendConfirmation(ctx, testEmail)
		require.NoError(t, err)

		f.clock.Advance(2 * time.Hour)
		assert.Zero(t, sweep(f), "a live link keeps the account")

		_, err = f.uc.ConfirmEmail(ctx, f.mail.confirmationToken(testEmail))
		require.NoError(t, err)
		f.login(t, testEmail, testPassword)
	})

	t.Run("swept once the resent link expires", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, testEmail, testPassword)

		f.clock.Advance(71 * time.Hour)
		_, err := f.uc.ResendConfirmation(ctx, testEmail)
		require.NoError(t, err)

		f.clock.Advance(24 * time.Hour)
		assert.Equal(t, int64(1), sweep(f))
	})

	t.Run("never resent", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, testEmail, testPassword)

		f.clock.Advance(grace + time.Minute)
		assert.Equal(t, int64(1), sweep(f))
	})
}

func TestSocialLogin(t *testing.T) {
	f := newFixture(t)

	sess, err := f.uc.SocialLogin(context.Background(), domain.ExternalIdentity{
		Provider: "github", ProviderID: "7", Email: "octo@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "octo@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.AccessToken)
	assert.Equal(t, 1, f.tokens.count())
}

// Walks an account through its whole life: sign up, confirm, sign in, rotate
// the session, forget the password and come back with a new one.
func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, testEmail, testPassword)
	_, err := f.uc.Login(ctx, testEmail, testPassword)
	require.ErrorIs(t, err, domain.ErrEmailNotConfirmed)

	_, err = f.uc.ConfirmEmail(ctx, f.mail.confirmationToken(testEmail))
	require.NoError(t, err)

	sess := f.login(t, testEmail, testPassword)
	f.clock.Advance(20 * time.Minute)
	_, err = f.issuer.ParseAccessToken(sess.AccessToken)
	require.Error(t, err, "access token outlived its ttl")

	rotated, err := f.uc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	_, err = f.issuer.ParseAccessToken(rotated.AccessToken)
	require.NoError(t, err)

	_, err = f.uc.RequestPasswordReset(ctx, testEmail)
	require.NoError(t, err)
	_, err = f.uc.ResetPassword(ctx, f.mail.resetToken(testEmail), newPassword)
	require.NoError(t, err)

	_, err = f.uc.Refresh(ctx, rotated.RefreshToken)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 0, f.tokens.count())

	final := f.login(t, testEmail, newPassword)
	require.NoError(t, f.uc.Logout(ctx, final.RefreshToken))
	assert.Equal(t, 0, f.tokens.count())
}

func TestBcryptHasher(t *testing.T) {
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	other, err := hasher.Hash(testPassword)
	require.NoError(t, err)

	assert.NotEqual(t, hash, other, "each hash carries its own salt")
	assert.True(t, hasher.Matches(hash, testPassword))
	assert.False(t, hasher.Matches(hash, newPassword))
	assert.False(t, hasher.Matches("not-a-bcrypt-hash", testPassword))
}

func TestRegisterConfirmLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	notice, err := f.uc.Register(ctx, usecase.RegisterInput{Email: "a@x.com", Password: "Password123!"})
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeRegistered, notice)

	notice, err = f.uc.ConfirmEmail(ctx, f.mail.confirmationToken("a@x.com"))
	require.NoError(t, err)
	assert.Equal(t, domain.NoticeEmailConfirmed, notice)

	sess, err := f.uc.Login(ctx, "a@x.com", "Password123!")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
}
