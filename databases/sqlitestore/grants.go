package sqlitestore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/linesmerrill/league-invite-api/models"
)

// Enqueue records a grant whose membership application failed once already.
func (s *Store) Enqueue(ctx context.Context, grant models.MembershipGrant, cause string, now time.Time) (models.PendingGrant, error) {
	pending := models.PendingGrant{
		ID:        uuid.New().String(),
		Grant:     grant,
		Status:    models.GrantPending,
		Attempts:  1,
		LastError: cause,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO membership_grants (id, league_id, identity, code, status, attempts, last_error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pending.ID,
		grant.LeagueID,
		grant.Identity,
		grant.Code,
		pending.Status,
		pending.Attempts,
		pending.LastError,
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		return models.PendingGrant{}, fmt.Errorf("enqueue grant: %w", err)
	}
	return pending, nil
}

// Pending returns up to limit grants still waiting, oldest first.
func (s *Store) Pending(ctx context.Context, limit int) ([]models.PendingGrant, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, league_id, identity, code, status, attempts, last_error, created_at, updated_at
		   FROM membership_grants
		  WHERE status = ?
		  ORDER BY created_at, id
		  LIMIT ?`,
		models.GrantPending,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending grants: %w", err)
	}
	defer rows.Close()

	var grants []models.PendingGrant
	for rows.Next() {
		var (
			g                    models.PendingGrant
			createdAt, updatedAt int64
		)
		if err := rows.Scan(
			&g.ID,
			&g.Grant.LeagueID,
			&g.Grant.Identity,
			&g.Grant.Code,
			&g.Status,
			&g.Attempts,
			&g.LastError,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending grant: %w", err)
		}
		g.CreatedAt = fromMillis(createdAt)
		g.UpdatedAt = fromMillis(updatedAt)
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending grants: %w", err)
	}
	return grants, nil
}

// MarkApplied closes out a grant once membership has been applied.
func (s *Store) MarkApplied(ctx context.Context, id string, now time.Time) error {
	return s.updateGrant(ctx,
		`UPDATE membership_grants SET status = ?, updated_at = ? WHERE id = ?`,
		models.GrantApplied, toMillis(now), id)
}

// MarkAttemptFailed counts one more failed attempt and optionally parks the grant.
func (s *Store) MarkAttemptFailed(ctx context.Context, id, cause string, park bool, now time.Time) error {
	status := models.GrantPending
	if park {
		status = models.GrantFailed
	}
	return s.updateGrant(ctx,
		`UPDATE membership_grants
		    SET attempts = attempts + 1, last_error = ?, status = ?, updated_at = ?
		  WHERE id = ?`,
		cause, status, toMillis(now), id)
}

func (s *Store) updateGrant(ctx context.Context, query string, args ...any) error {
	res, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update grant: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("membership grant %s not found", args[len(args)-1])
	}
	return nil
}
