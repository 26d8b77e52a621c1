package invites

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/logging"
	"github.com/linesmerrill/league-invite-api/models"
)

// Redeemer consumes invite uses. The state transition itself belongs to Store.TryRedeem.
type Redeemer struct {
	store Store
}

// NewRedeemer creates a Redeemer over store
func NewRedeemer(store Store) *Redeemer {
	return &Redeemer{store: store}
}

// Redeem consumes one use of code for identity and returns the grant the membership
// collaborator should apply.
func (r *Redeemer) Redeem(ctx context.Context, code, identity string, now time.Time) (models.MembershipGrant, error) {
	code = strings.TrimSpace(code)
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return models.MembershipGrant{}, ErrUnauthorized
	}
	if code == "" {
		return models.MembershipGrant{}, ErrInvalidCode
	}

	res, err := r.store.TryRedeem(ctx, code, now)
	if err != nil {
		return models.MembershipGrant{}, storeUnavailable("redeem invite", err)
	}

	switch res.Outcome {
	case models.Redeemed:
		zap.S().Infow("invite redeemed",
			"code", logging.Code(code),
			"leagueId", res.Invite.LeagueID,
			"identity", identity,
			"usedCount", res.Invite.UsedCount,
			"maxUses", res.Invite.MaxUses)
		return models.MembershipGrant{LeagueID: res.Invite.LeagueID, Identity: identity, Code: code}, nil
	case models.RedeemExpired:
		return models.MembershipGrant{}, ErrCodeExpired
	case models.RedeemExhausted:
		return models.MembershipGrant{}, ErrCodeExhausted
	case models.RedeemNotFound:
		return models.MembershipGrant{}, ErrInvalidCode
	default:
		return models.MembershipGrant{}, fmt.Errorf("unknown redeem outcome %d", res.Outcome)
	}
}
