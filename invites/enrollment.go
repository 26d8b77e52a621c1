package invites

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/models"
)

// Enrollment redeems a code and hands the resulting grant to the membership collaborator.
// A failed application never rolls back the redemption; the grant goes to the queue instead.
type Enrollment struct {
	redeemer *Redeemer
	members  MembershipApplier
	queue    GrantQueue
	now      func() time.Time
}

// NewEnrollment creates an Enrollment. queue may be nil, in which case failed grants are
// only reported to the caller.
func NewEnrollment(redeemer *Redeemer, members MembershipApplier, queue GrantQueue) *Enrollment {
	return &Enrollment{
		redeemer: redeemer,
		members:  members,
		queue:    queue,
		now:      time.Now,
	}
}

// Accept redeems code for identity and applies the membership
func (e *Enrollment) Accept(ctx context.Context, code, identity string) (models.MembershipGrant, error) {
	now := e.now().UTC()
	grant, err := e.redeemer.Redeem(ctx, code, identity, now)
	if err != nil {
		return models.MembershipGrant{}, err
	}

	applyErr := e.members.ApplyMembership(ctx, grant.LeagueID, grant.Identity)
	if applyErr == nil {
		return grant, nil
	}

	zap.S().Errorw("membership apply failed after redemption",
		"leagueId", grant.LeagueID,
		"identity", grant.Identity,
		"error", applyErr)

	failure := &MembershipApplyError{Grant: grant, Err: applyErr}
	if e.queue != nil {
		// the caller may already be gone; the grant still has to be recorded
		queueCtx := context.WithoutCancel(ctx)
		pending, err := e.queue.Enqueue(queueCtx, grant, applyErr.Error(), now)
		if err != nil {
			zap.S().Errorw("failed to queue membership grant for reconciliation",
				"leagueId", grant.LeagueID,
				"identity", grant.Identity,
				"error", err)
		} else {
			failure.Queued = true
			zap.S().Infow("membership grant queued", "grantId", pending.ID)
		}
	}
	return grant, failure
}

// ReconcileReport summarises one reconciliation pass
type ReconcileReport struct {
	Applied int
	Retried int
	Parked  int
}

// Reconcile re-applies up to batch queued grants. Grants that fail maxAttempts times are
// parked for an operator.
func (e *Enrollment) Reconcile(ctx context.Context, batch, maxAttempts int) (ReconcileReport, error) {
	var report ReconcileReport
	if e.queue == nil {
		return report, nil
	}
	pending, err := e.queue.Pending(ctx, batch)
	if err != nil {
		return report, storeUnavailable("list pending grants", err)
	}

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		now := e.now().UTC()
		applyErr := e.members.ApplyMembership(ctx, p.Grant.LeagueID, p.Grant.Identity)
		if applyErr == nil {
			if err := e.queue.MarkApplied(ctx, p.ID, now); err != nil {
				return report, storeUnavailable("mark grant applied", err)
			}
			report.Applied++
			continue
		}

		park := p.Attempts+1 >= maxAttempts
		if err := e.queue.MarkAttemptFailed(ctx, p.ID, applyErr.Error(), park, now); err != nil {
			return report, storeUnavailable("record grant attempt", err)
		}
		if park {
			zap.S().Errorw("membership grant parked after repeated failures",
				"grantId", p.ID,
				"leagueId", p.Grant.LeagueID,
				"identity", p.Grant.Identity,
				"error", applyErr)
			report.Parked++
		} else {
			report.Retried++
		}
	}
	return report, nil
}
