package invites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/logging"
	"github.com/linesmerrill/league-invite-api/models"
)

// Policy bounds what an issuer may ask for
type Policy struct {
	DefaultMaxUses     int
	MaxUsesCeiling     int
	GenerationAttempts int
}

// DefaultPolicy matches the fixed cap the league owners have always been issued
var DefaultPolicy = Policy{DefaultMaxUses: 100, MaxUsesCeiling: 1000, GenerationAttempts: 5}

// IssueRequest is an owner's request for a new invite. Nil fields take policy defaults.
type IssueRequest struct {
	Identity  string
	LeagueID  string
	MaxUses   *int
	ExpiresAt *time.Time
}

// Authority issues invite codes on behalf of league owners
type Authority struct {
	store     Store
	checker   AuthorizationChecker
	generator CodeGenerator
	policy    Policy
	now       func() time.Time
}

// NewAuthority creates an Authority. Zero policy fields fall back to DefaultPolicy.
func NewAuthority(store Store, checker AuthorizationChecker, generator CodeGenerator, policy Policy) *Authority {
	if policy.DefaultMaxUses < 1 {
		policy.DefaultMaxUses = DefaultPolicy.DefaultMaxUses
	}
	if policy.MaxUsesCeiling < policy.DefaultMaxUses {
		policy.MaxUsesCeiling = max(DefaultPolicy.MaxUsesCeiling, policy.DefaultMaxUses)
	}
	if policy.GenerationAttempts < 1 {
		policy.GenerationAttempts = DefaultPolicy.GenerationAttempts
	}
	return &Authority{
		store:     store,
		checker:   checker,
		generator: generator,
		policy:    policy,
		now:       time.Now,
	}
}

// Issue verifies the caller may manage the league, applies policy and persists a new
// invite with a freshly generated code.
func (a *Authority) Issue(ctx context.Context, req IssueRequest) (models.InviteCode, error) {
	identity := strings.TrimSpace(req.Identity)
	leagueID := strings.TrimSpace(req.LeagueID)
	if identity == "" {
		return models.InviteCode{}, ErrUnauthorized
	}
	if leagueID == "" {
		return models.InviteCode{}, ErrInvalidGroup
	}

	owner, err := a.checker.IsOwner(ctx, identity, leagueID)
	if err != nil {
		if errors.Is(err, ErrInvalidGroup) {
			return models.InviteCode{}, err
		}
		return models.InviteCode{}, storeUnavailable("check league owner", err)
	}
	if !owner {
		zap.S().Infow("invite issuance refused", "leagueId", leagueID, "identity", identity)
		return models.InviteCode{}, ErrUnauthorized
	}

	maxUses := a.policy.DefaultMaxUses
	if req.MaxUses != nil {
		maxUses = *req.MaxUses
	}
	if maxUses < 1 || maxUses > a.policy.MaxUsesCeiling {
		return models.InviteCode{}, fmt.Errorf("%w: maxUses must be between 1 and %d", ErrInvalidPolicy, a.policy.MaxUsesCeiling)
	}

	// both stores keep milliseconds; truncate so the issued record matches what get returns
	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t := req.ExpiresAt.UTC().Truncate(time.Millisecond)
		expiresAt = &t
	}

	invite := models.InviteCode{
		LeagueID:  leagueID,
		IssuerID:  identity,
		MaxUses:   maxUses,
		UsedCount: 0,
		ExpiresAt: expiresAt,
		CreatedAt: a.now().UTC().Truncate(time.Millisecond),
	}

	for attempt := 1; attempt <= a.policy.GenerationAttempts; attempt++ {
		invite.Code = a.generator.Generate()
		err := a.store.Create(ctx, invite)
		if err == nil {
			zap.S().Infow("invite issued",
				"leagueId", leagueID,
				"issuer", identity,
				"code", logging.Code(invite.Code),
				"maxUses", maxUses)
			return invite, nil
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return models.InviteCode{}, storeUnavailable("create invite", err)
		}
		zap.S().Warnw("invite code collision", "attempt", attempt, "leagueId", leagueID)
	}
	return models.InviteCode{}, ErrGenerationExhausted
}
