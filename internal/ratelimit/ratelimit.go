// Package ratelimit implements fixed-window rate limiting backed by the
// rate_limits table, so limits hold across instances without extra
// infrastructure.
package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tvtrungg/covid-management-system/internal/observability"
)

// Policy is one named limit: at most Max requests per Window for each
// distinct identifier under KeyPrefix.
type Policy struct {
	Name      string
	Max       int
	Window    time.Duration
	KeyPrefix string
}

var (
	LoginPolicy = Policy{Name: "login", Max: 20, Window: 15 * time.Minute, KeyPrefix: "login:"}
	ResetPolicy = Policy{Name: "reset", Max: 3, Window: time.Hour, KeyPrefix: "reset:"}
	APIPolicy   = Policy{Name: "api", Max: 100, Window: time.Minute, KeyPrefix: "api:"}
)

// Result reports the outcome of one Check call; ResetAt is the end of the
// current window, exposed to clients via X-RateLimit-Reset.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type Limiter struct {
	db  *sql.DB
	log *observability.Logger
}

func NewLimiter(db *sql.DB) *Limiter {
	return &Limiter{db: db}
}

func (l *Limiter) WithLogger(log *observability.Logger) *Limiter {
	l.log = log
	return l
}

// Check counts requests inside the current window for the identifier and
// records this one if it is allowed. Rows older than the window are dropped
// first so the count only sees the live window.
func (l *Limiter) Check(ctx context.Context, p Policy, key string) (Result, error) {
	identifier := p.KeyPrefix + key
	now := time.Now().UTC()
	windowStart := now.Add(-p.Window)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM rate_limits WHERE identifier = $1 AND created_at < $2`,
		identifier, windowStart)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: prune window: %w", err)
	}

	var count int
	var oldest sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at) FROM rate_limits WHERE identifier = $1`,
		identifier).Scan(&count, &oldest)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: count window: %w", err)
	}

	resetAt := now.Add(p.Window)
	if oldest.Valid {
		resetAt = oldest.Time.Add(p.Window)
	}

	if count >= p.Max {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rate_limits (identifier, created_at) VALUES ($1, $2)`,
		identifier, now)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: record request: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("ratelimit: commit: %w", err)
	}

	return Result{Allowed: true, Remaining: p.Max - count - 1, ResetAt: resetAt}, nil
}

// DeleteExpired removes rows older than the longest window in use. Called
// from the maintenance cleanup alongside session pruning.
func (l *Limiter) DeleteExpired(ctx context.Context, olderThan time.Duration, batchSize int) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := l.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id FROM rate_limits
			WHERE created_at < $1
			LIMIT $2
		)
		DELETE FROM rate_limits WHERE id IN (SELECT id FROM stale)`,
		cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("ratelimit: delete expired: %w", err)
	}
	return res.RowsAffected()
}
