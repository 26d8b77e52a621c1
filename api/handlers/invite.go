package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/api"
	"github.com/linesmerrill/league-invite-api/config"
	"github.com/linesmerrill/league-invite-api/invites"
	"github.com/linesmerrill/league-invite-api/logging"
	"github.com/linesmerrill/league-invite-api/models"
	"github.com/linesmerrill/league-invite-api/validate"
)

// notifyTimeout bounds the fire-and-forget invite email
const notifyTimeout = 30 * time.Second

// Invite exported for testing purposes
type Invite struct {
	Authority  *invites.Authority
	Enrollment *invites.Enrollment
	Store      invites.Store
	Checker    invites.AuthorizationChecker
	Notifier   invites.Notifier
	BaseURL    string
	Metrics    *api.MetricsCollector
}

type issueInviteRequest struct {
	MaxUses   *int       `json:"maxUses" validate:"omitempty,min=1"`
	ExpiresAt *time.Time `json:"expiresAt"`
	Email     string     `json:"email,omitempty" validate:"omitempty,email"`
}

type inviteResponse struct {
	models.InviteCode
	Link       string `json:"link"`
	Redeemable bool   `json:"redeemable"`
}

func newInviteResponse(baseURL string, invite models.InviteCode) inviteResponse {
	return inviteResponse{
		InviteCode: invite,
		Link:       invites.BuildAcceptLink(baseURL, invite.Code),
		Redeemable: invite.Redeemable(time.Now()),
	}
}

type redeemResponse struct {
	LeagueID string `json:"leagueId"`
	Identity string `json:"identity"`
}

type membershipFailureResponse struct {
	Error  string                 `json:"error"`
	Kind   string                 `json:"kind"`
	Grant  models.MembershipGrant `json:"grant"`
	Queued bool                   `json:"queued"`
}

// IssueInviteHandler creates a new invite code for a league the caller manages
func (i Invite) IssueInviteHandler(w http.ResponseWriter, r *http.Request) {
	leagueID := mux.Vars(r)["leagueId"]
	identity, _ := api.IdentityFromContext(r.Context())

	var req issueInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		config.ErrorKindStatus("failed to decode request", invites.Kind(invites.ErrInvalidPolicy), http.StatusBadRequest, w, err)
		return
	}
	if err := validate.Struct(&req); err != nil {
		config.ErrorKindStatus("invalid invite request", invites.Kind(invites.ErrInvalidPolicy), http.StatusBadRequest, w, err)
		return
	}

	invite, err := i.Authority.Issue(r.Context(), invites.IssueRequest{
		Identity:  identity,
		LeagueID:  leagueID,
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		i.writeError(w, err)
		return
	}
	i.record("Issued")

	resp := newInviteResponse(i.BaseURL, invite)
	if req.Email != "" && i.Notifier != nil {
		i.notify(r.Context(), invite, api.DisplayNameFromContext(r.Context()), req.Email, resp.Link)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

// notify sends the invite email in the background; the invite stands whatever happens
func (i Invite) notify(parent context.Context, invite models.InviteCode, inviter, recipient, link string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), notifyTimeout)
	go func() {
		defer cancel()
		defer func() {
			if rec := recover(); rec != nil {
				zap.S().Errorw("invite notification panicked", "panic", rec)
			}
		}()
		if err := i.Notifier.SendInvite(ctx, invite, inviter, recipient, link); err != nil {
			zap.S().Warnw("invite notification failed",
				"leagueId", invite.LeagueID,
				"code", logging.Code(invite.Code),
				"error", err)
		}
	}()
}

// RedeemInviteHandler consumes one use of a code and adds the caller to the league
func (i Invite) RedeemInviteHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	identity, _ := api.IdentityFromContext(r.Context())

	grant, err := i.Enrollment.Accept(r.Context(), code, identity)
	if err != nil {
		var applyErr *invites.MembershipApplyError
		if errors.As(err, &applyErr) {
			i.record(invites.Kind(err))
			zap.S().Errorw("redemption committed but membership not applied",
				"leagueId", grant.LeagueID,
				"identity", grant.Identity,
				"queued", applyErr.Queued,
				"error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(membershipFailureResponse{
				Error:  invites.ErrMembershipApplyFailed.Error(),
				Kind:   invites.Kind(err),
				Grant:  grant,
				Queued: applyErr.Queued,
			})
			return
		}
		i.writeError(w, err)
		return
	}
	i.record("Redeemed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(redeemResponse{LeagueID: grant.LeagueID, Identity: grant.Identity})
}

// InviteByCodeHandler returns an invite record to a manager of its league
func (i Invite) InviteByCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		config.ErrorKindStatus("invite code is required", invites.Kind(invites.ErrInvalidCode), http.StatusBadRequest, w, nil)
		return
	}
	identity, _ := api.IdentityFromContext(r.Context())

	invite, err := i.Store.Get(r.Context(), code)
	if err != nil {
		if !errors.Is(err, invites.ErrInvalidCode) {
			err = errors.Join(invites.ErrStoreUnavailable, err)
		}
		i.writeError(w, err)
		return
	}
	owner, err := i.Checker.IsOwner(r.Context(), identity, invite.LeagueID)
	if err != nil {
		if !errors.Is(err, invites.ErrInvalidGroup) {
			err = errors.Join(invites.ErrStoreUnavailable, err)
		}
		i.writeError(w, err)
		return
	}
	if !owner {
		i.writeError(w, invites.ErrUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(newInviteResponse(i.BaseURL, *invite))
}

// writeError maps an invite error onto its status. Server side failures are logged in
// full and answered with the bare taxonomy message.
func (i Invite) writeError(w http.ResponseWriter, err error) {
	kind := invites.Kind(err)
	status := statusForKind(kind)
	if kind != "Internal" {
		i.record(kind)
	}
	if status >= http.StatusInternalServerError {
		zap.S().Errorw("invite request failed", "kind", kind, "error", err)
		config.ErrorKindStatus(messageForKind(kind), kind, status, w, nil)
		return
	}
	config.ErrorKindStatus(err.Error(), kind, status, w, nil)
}

func (i Invite) record(kind string) {
	if i.Metrics != nil {
		i.Metrics.RecordOutcome(kind)
	}
}

func statusForKind(kind string) int {
	switch kind {
	case "Unauthorized":
		return http.StatusForbidden
	case "InvalidGroup", "InvalidCode":
		return http.StatusNotFound
	case "CodeExpired":
		return http.StatusGone
	case "CodeExhausted":
		return http.StatusConflict
	case "InvalidPolicy":
		return http.StatusBadRequest
	case "StoreUnavailable":
		return http.StatusServiceUnavailable
	case "MembershipApplyFailed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageForKind(kind string) string {
	switch kind {
	case "GenerationExhausted":
		return invites.ErrGenerationExhausted.Error()
	case "StoreUnavailable":
		return invites.ErrStoreUnavailable.Error()
	case "MembershipApplyFailed":
		return invites.ErrMembershipApplyFailed.Error()
	default:
		return "internal server error"
	}
}
