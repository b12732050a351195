package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation = "23505"
	usersEmailKey   = "users_email_key"
	userColumns     = `id, email, password_hash, name, email_confirmed,
		confirmation_token_hash, confirmation_expires_at,
		reset_token_hash, reset_expires_at,
		avatar_url, provider, provider_id, created_at, updated_at`
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (
			email, password_hash, name, email_confirmed,
			confirmation_token_hash, confirmation_expires_at,
			avatar_url, provider, provider_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	row := r.pool.QueryRow(ctx, query,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.EmailConfirmed,
		u.ConfirmationTokenHash,
		u.ConfirmationExpiresAt,
		u.AvatarURL,
		u.Provider,
		u.ProviderID,
	)

	created, err := scanUser(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) FindByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE provider = $1 AND provider_id = $2`,
		provider, providerID)
}

func (r *UserRepository) FindByConfirmationToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE confirmation_token_hash = $1`, tokenHash)
}

func (r *UserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	return r.findOne(ctx,
		`SELECT `+userColumns+` FROM users
		WHERE reset_token_hash = $1 AND reset_expires_at > $2`, tokenHash, now)
}

// Update applies the non-nil fields of upd and returns the updated row.
func (r *UserRepository) Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.PasswordHash != nil {
		set("password_hash", *upd.PasswordHash)
	}
	if upd.EmailConfirmed != nil {
		set("email_confirmed", *upd.EmailConfirmed)
	}
	if upd.AvatarURL != nil {
		set("avatar_url", *upd.AvatarURL)
	}
	if upd.Provider != nil {
		set("provider", *upd.Provider)
	}
	if upd.ProviderID != nil {
		set("provider_id", *upd.ProviderID)
	}
	if t := upd.ConfirmationToken; t != nil {
		hash, expires := tokenArgs(*t)
		set("confirmation_token_hash", hash)
		set("confirmation_expires_at", expires)
	}
	if t := upd.ResetToken; t != nil {
		hash, expires := tokenArgs(*t)
		set("reset_token_hash", hash)
		set("reset_expires_at", expires)
	}

	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
		WHERE id = $` + strconv.Itoa(len(args)) + `
		RETURNING ` + userColumns

	updated, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapWriteError(err)
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// DeleteUnconfirmedBefore removes accounts that never confirmed their email
// and were created before cutoff. An account whose confirmation link is still
// live at now is kept until the link expires. Refresh tokens go with them via
// ON DELETE CASCADE.
func (r *UserRepository) DeleteUnconfirmedBefore(ctx context.Context, cutoff, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM users
		WHERE email_confirmed = FALSE
		  AND created_at < $1
		  AND (confirmation_expires_at IS NULL OR confirmation_expires_at <= $2)`,
		cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("delete unconfirmed users: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	return scanUser(r.pool.QueryRow(ctx, query, args...))
}

func tokenArgs(t domain.TokenUpdate) (*string, *time.Time) {
	if t.Clear() {
		return nil, nil
	}
	return &t.Hash, &t.ExpiresAt
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == usersEmailKey {
			return domain.ErrEmailAlreadyExists
		}
		return domain.ErrConflict
	}
	return err
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.EmailConfirmed,
		&u.ConfirmationTokenHash,
		&u.ConfirmationExpiresAt,
		&u.ResetTokenHash,
		&u.ResetExpiresAt,
		&u.AvatarURL,
		&u.Provider,
		&u.ProviderID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
