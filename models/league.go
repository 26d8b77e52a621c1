package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// League holds the structure for the league collection in mongo
type League struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details LeagueDetails      `json:"league" bson:"league"`
}

// LeagueDetails holds the structure for the inner league document
type LeagueDetails struct {
	Name      string             `json:"name" bson:"name"`
	OwnerID   string             `json:"ownerId" bson:"ownerId"`
	Admins    []string           `json:"admins" bson:"admins"`
	Members   []string           `json:"members" bson:"members"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// ManagedBy reports whether identity owns or administers the league
func (l LeagueDetails) ManagedBy(identity string) bool {
	if identity == "" {
		return false
	}
	if l.OwnerID == identity {
		return true
	}
	for _, admin := range l.Admins {
		if admin == identity {
			return true
		}
	}
	return false
}
