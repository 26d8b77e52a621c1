package models

import (
	"time"
)

// InviteCode represents the structure of an invite code document. Everything except
// UsedCount is immutable once issued.
type InviteCode struct {
	Code      string     `json:"code" bson:"code"`
	LeagueID  string     `json:"leagueId" bson:"leagueId"`
	IssuerID  string     `json:"issuerId" bson:"issuerId"`
	MaxUses   int        `json:"maxUses" bson:"maxUses"`
	UsedCount int        `json:"usedCount" bson:"usedCount"`
	ExpiresAt *time.Time `json:"expiresAt" bson:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
}

// Expired reports whether the code has passed its expiry at now
func (i InviteCode) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && !now.Before(*i.ExpiresAt)
}

// Exhausted reports whether every use of the code has been consumed
func (i InviteCode) Exhausted() bool {
	return i.UsedCount >= i.MaxUses
}

// Redeemable reports whether one more redemption may be committed at now
func (i InviteCode) Redeemable(now time.Time) bool {
	return !i.Exhausted() && !i.Expired(now)
}

// RedeemOutcome is the result of an atomic redemption attempt against the store
type RedeemOutcome int

const (
	// RedeemNotFound means no record exists for the code
	RedeemNotFound RedeemOutcome = iota
	// Redeemed means one use was consumed and committed
	Redeemed
	// RedeemExpired means the code is past its expiry
	RedeemExpired
	// RedeemExhausted means the code has no uses left
	RedeemExhausted
)

func (o RedeemOutcome) String() string {
	switch o {
	case Redeemed:
		return "Redeemed"
	case RedeemExpired:
		return "Expired"
	case RedeemExhausted:
		return "Exhausted"
	default:
		return "NotFound"
	}
}

// Redemption is what the store reports back from TryRedeem. Invite holds the record as
// committed when the outcome is Redeemed, and the last observed state otherwise.
type Redemption struct {
	Outcome RedeemOutcome
	Invite  InviteCode
}

// ClassifyRedemption picks the failure outcome for a record that could not be redeemed.
// Expiry wins over exhaustion so an expired code always reads as expired.
func ClassifyRedemption(invite *InviteCode, now time.Time) RedeemOutcome {
	switch {
	case invite == nil:
		return RedeemNotFound
	case invite.Expired(now):
		return RedeemExpired
	case invite.Exhausted():
		return RedeemExhausted
	default:
		return Redeemed
	}
}
