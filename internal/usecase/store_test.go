package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
)

// memUsers is an in-memory credential store with the same uniqueness and
// lookup rules as the Postgres one.
type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
	now   func() time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User), now: time.Now}
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return nil, domain.ErrEmailAlreadyExists
		}
		if u.Provider != nil && existing.Provider != nil && *existing.Provider == *u.Provider &&
			u.ProviderID != nil && existing.ProviderID != nil && *existing.ProviderID == *u.ProviderID {
			return nil, domain.ErrConflict
		}
	}

	m.seq++
	created := *u
	created.ID = fmt.Sprintf("user-%d", m.seq)
	created.CreatedAt = m.now()
	created.UpdatedAt = created.CreatedAt
	m.users[created.ID] = created
	return &created, nil
}

func (m *memUsers) find(match func(u domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.ID == id })
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return m.find(func(u domain.User) bool { return u.Email == email })
}

func (m *memUsers) FindByProvider(_ context.Context, provider, providerID string) (*domain.User, error) {
	return m.find(func(u domain.User) bool {
		return u.Provider != nil && *u.Provider == provider && u.ProviderID != nil && *u.ProviderID == providerID
	})
}

func (m *memUsers) FindByConfirmationToken(_ context.Context, tokenHash string) (*domain.User, error) {
	return m.find(func(u domain.User) bool {
		return u.ConfirmationTokenHash != nil && *u.ConfirmationTokenHash == tokenHash
	})
}

func (m *memUsers) FindByResetToken(_ context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return m.find(func(u domain.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetExpiresAt != nil && u.ResetExpiresAt.After(now)
	})
}

func (m *memUsers) Update(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Name != nil {
		u.Name = upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.EmailConfirmed != nil {
		u.EmailConfirmed = *upd.EmailConfirmed
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = upd.AvatarURL
	}
	if upd.Provider != nil {
		u.Provider = upd.Provider
	}
	if upd.ProviderID != nil {
		u.ProviderID = upd.ProviderID
	}
	if t := upd.ConfirmationToken; t != nil {
		u.ConfirmationTokenHash, u.ConfirmationExpiresAt = tokenFields(*t)
	}
	if t := upd.ResetToken; t != nil {
		u.ResetTokenHash, u.ResetExpiresAt = tokenFields(*t)
	}
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return &u, nil
}

func tokenFields(t domain.TokenUpdate) (*string, *time.Time) {
	if t.Clear() {
		return nil, nil
	}
	return &t.Hash, &t.ExpiresAt
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memUsers) DeleteUnconfirmedBefore(_ context.Context, cutoff, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, u := range m.users {
		live := u.ConfirmationExpiresAt != nil && u.ConfirmationExpiresAt.After(now)
		if !u.EmailConfirmed && u.CreatedAt.Before(cutoff) && !live {
			delete(m.users, id)
			n++
		}
	}
	return n, nil
}

// get reads a user straight from the store, secrets included.
func (m *memUsers) get(email string) domain.User {
	u, err := m.FindByEmail(context.Background(), email)
	if err != nil {
		panic(err)
	}
	return *u
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[string]domain.RefreshToken)}
}

func (m *memTokens) Create(_ context.Context, t *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.TokenHash]; ok {
		return domain.ErrConflict
	}
	m.tokens[t.TokenHash] = *t
	return nil
}

func (m *memTokens) FindByValue(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, domain.ErrRefreshTokenNotFound
	}
	return &t, nil
}

func (m *memTokens) Consume(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, domain.ErrRefreshTokenNotFound
	}
	delete(m.tokens, tokenHash)
	return &t, nil
}

func (m *memTokens) Delete(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, tokenHash)
	return nil
}

func (m *memTokens) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, h)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.tokens {
		if t.Expired(now) {
			delete(m.tokens, h)
			n++
		}
	}
	return n, nil
}

func (m *memTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// recordingNotifier keeps the raw tokens that would have been emailed.
type recordingNotifier struct {
	mu           sync.Mutex
	confirmation map[string]string
	reset        map[string]string
	err          error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{confirmation: map[string]string{}, reset: map[string]string{}}
}

func (n *recordingNotifier) SendConfirmation(_ context.Context, to, rawToken string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.confirmation[to] = rawToken
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, to, rawToken string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.reset[to] = rawToken
	return nil
}

func (n *recordingNotifier) confirmationToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.confirmation[email]
}

func (n *recordingNotifier) resetToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reset[email]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
