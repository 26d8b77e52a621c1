package models

import "time"

// MembershipGrant instructs the membership collaborator to add Identity to LeagueID
type MembershipGrant struct {
	LeagueID string `json:"leagueId" bson:"leagueId"`
	Identity string `json:"identity" bson:"identity"`
	Code     string `json:"-" bson:"code"`
}

// Grant statuses in the reconciliation queue
const (
	GrantPending = "pending"
	GrantApplied = "applied"
	GrantFailed  = "failed"
)

// PendingGrant is a committed redemption whose membership has not been applied yet
type PendingGrant struct {
	ID        string          `json:"id" bson:"_id"`
	Grant     MembershipGrant `json:"grant" bson:"grant"`
	Status    string          `json:"status" bson:"status"`
	Attempts  int             `json:"attempts" bson:"attempts"`
	LastError string          `json:"lastError" bson:"lastError"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt"`
}
