// Package sweeper periodically removes accounts that were never confirmed
// and refresh tokens that have expired.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/auth-starter/internal/metrics"
	"github.com/robfig/cron/v3"
)

type unconfirmedUsers interface {
	DeleteUnconfirmedBefore(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type expiredTokens interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	users  unconfirmedUsers
	tokens expiredTokens
	grace  time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New returns a sweeper that deletes accounts left unconfirmed for longer
// than grace. A resent confirmation link keeps its account alive until the
// link itself expires.
func New(users unconfirmedUsers, tokens expiredTokens, grace time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		users:  users,
		tokens: tokens,
		grace:  grace,
		logger: logger.With("component", "sweeper"),
		now:    time.Now,
	}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Start runs Sweep on a cron schedule ("@every 1h", "0 3 * * *", ...) until
// ctx is cancelled. A run still in progress when the next one is due makes
// the next one skip.
func (s *Sweeper) Start(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { _ = s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}

	s.logger.Info("sweeper started", "schedule", schedule, "grace", s.grace)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("sweeper shut down")
	return nil
}

// Sweep runs one pass. Both deletions are attempted even if one fails.
func (s *Sweeper) Sweep(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now()
	var errs []error

	users, err := s.users.DeleteUnconfirmedBefore(ctx, now.Add(-s.grace), now)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete unconfirmed users", "error", err)
		errs = append(errs, fmt.Errorf("delete unconfirmed users: %w", err))
	} else {
		metrics.SweepDeletedTotal.WithLabelValues("unconfirmed_user").Add(float64(users))
	}

	tokens, err := s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "delete expired refresh tokens", "error", err)
		errs = append(errs, fmt.Errorf("delete expired refresh tokens: %w", err))
	} else {
		metrics.SweepDeletedTotal.WithLabelValues("refresh_token").Add(float64(tokens))
	}

	if users > 0 || tokens > 0 {
		s.logger.InfoContext(ctx, "sweep finished", "unconfirmed_users", users, "refresh_tokens", tokens)
	}
	return errors.Join(errs...)
}
