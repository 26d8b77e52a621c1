// Package sqlitestore provides a SQLite-backed invite store and membership grant queue.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/linesmerrill/league-invite-api/databases/sqlitestore/migrations"
	"github.com/linesmerrill/league-invite-api/invites"
	"github.com/linesmerrill/league-invite-api/models"
)

// Store persists invites and pending grants in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer per process; other processes wait on busy_timeout
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create inserts one invite, failing with invites.ErrDuplicateCode if the code exists.
func (s *Store) Create(ctx context.Context, invite models.InviteCode) error {
	var expiresAt sql.NullInt64
	if invite.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: toMillis(*invite.ExpiresAt), Valid: true}
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO invite_codes (code, league_id, issuer_id, max_uses, used_count, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		invite.Code,
		invite.LeagueID,
		invite.IssuerID,
		invite.MaxUses,
		invite.UsedCount,
		expiresAt,
		toMillis(invite.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return invites.ErrDuplicateCode
		}
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

const inviteColumns = `code, league_id, issuer_id, max_uses, used_count, expires_at, created_at`

// TryRedeem consumes one use in a single conditional UPDATE, so the redeemability check
// and the increment cannot be separated by another writer.
func (s *Store) TryRedeem(ctx context.Context, code string, now time.Time) (models.Redemption, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`UPDATE invite_codes
		    SET used_count = used_count + 1
		  WHERE code = ?
		    AND used_count < max_uses
		    AND (expires_at IS NULL OR expires_at > ?)
		RETURNING `+inviteColumns,
		code,
		toMillis(now),
	)
	invite, err := scanInvite(row)
	if err == nil {
		return models.Redemption{Outcome: models.Redeemed, Invite: invite}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Redemption{}, fmt.Errorf("redeem invite: %w", err)
	}

	current, err := s.Get(ctx, code)
	if errors.Is(err, invites.ErrInvalidCode) {
		return models.Redemption{Outcome: models.RedeemNotFound}, nil
	}
	if err != nil {
		return models.Redemption{}, err
	}
	outcome := models.ClassifyRedemption(current, now)
	if outcome == models.Redeemed {
		outcome = models.RedeemNotFound
	}
	return models.Redemption{Outcome: outcome, Invite: *current}, nil
}

// Get returns one invite by code for display or audit.
func (s *Store) Get(ctx context.Context, code string) (*models.InviteCode, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+inviteColumns+` FROM invite_codes WHERE code = ?`, code)
	invite, err := scanInvite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invites.ErrInvalidCode
		}
		return nil, fmt.Errorf("get invite: %w", err)
	}
	return &invite, nil
}

func scanInvite(row *sql.Row) (models.InviteCode, error) {
	var (
		invite    models.InviteCode
		expiresAt sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(
		&invite.Code,
		&invite.LeagueID,
		&invite.IssuerID,
		&invite.MaxUses,
		&invite.UsedCount,
		&expiresAt,
		&createdAt,
	); err != nil {
		return models.InviteCode{}, err
	}
	if expiresAt.Valid {
		t := fromMillis(expiresAt.Int64)
		invite.ExpiresAt = &t
	}
	invite.CreatedAt = fromMillis(createdAt)
	return invite, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
