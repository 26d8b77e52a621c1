package sqlitestore

import (
	"context"
	"fmt"
	"time"
)

// TryAcquireLock takes name for ttl when it is free, expired, or already held by owner
func (s *Store) TryAcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO scheduler_locks (name, owner, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET owner = excluded.owner, expires_at = excluded.expires_at
		 WHERE scheduler_locks.expires_at < ? OR scheduler_locks.owner = excluded.owner`,
		name, owner, toMillis(now.Add(ttl)), toMillis(now),
	)
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return n == 1, nil
}

// ReleaseLock expires the lock if owner still holds it
func (s *Store) ReleaseLock(ctx context.Context, name, owner string) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`UPDATE scheduler_locks SET expires_at = 0 WHERE name = ? AND owner = ?`, name, owner)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}
