// Package invites issues and redeems league invite codes. All shared state lives behind
// Store; Authority, Redeemer and Enrollment hold no locks and are safe for concurrent use.
package invites

import (
	"context"
	"time"

	"github.com/linesmerrill/league-invite-api/models"
)

// Store persists invite records. TryRedeem must check redeemability and consume one use
// as a single atomic step so usedCount never passes maxUses, across any number of
// processes. Get is for display and audit only.
type Store interface {
	Create(ctx context.Context, invite models.InviteCode) error
	TryRedeem(ctx context.Context, code string, now time.Time) (models.Redemption, error)
	Get(ctx context.Context, code string) (*models.InviteCode, error)
}

// AuthorizationChecker decides whether identity may manage leagueID. It returns
// ErrInvalidGroup when the league does not exist.
type AuthorizationChecker interface {
	IsOwner(ctx context.Context, identity, leagueID string) (bool, error)
}

// MembershipApplier adds a redeemer to a league. Applying the same grant twice must be harmless.
type MembershipApplier interface {
	ApplyMembership(ctx context.Context, leagueID, identity string) error
}

// GrantQueue durably holds grants whose membership application failed
type GrantQueue interface {
	Enqueue(ctx context.Context, grant models.MembershipGrant, cause string, now time.Time) (models.PendingGrant, error)
	Pending(ctx context.Context, limit int) ([]models.PendingGrant, error)
	MarkApplied(ctx context.Context, id string, now time.Time) error
	MarkAttemptFailed(ctx context.Context, id, cause string, park bool, now time.Time) error
}

// Notifier delivers an issued invite to a recipient. inviter is a display name for the
// issuer and may be empty.
type Notifier interface {
	SendInvite(ctx context.Context, invite models.InviteCode, inviter, recipient, link string) error
}
