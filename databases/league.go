package databases

// go generate: mockery --name LeagueDatabase

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/league-invite-api/invites"
	"github.com/linesmerrill/league-invite-api/models"
)

const leagueName = "leagues"

// LeagueDatabase answers who manages a league and records new members
type LeagueDatabase interface {
	FindOne(ctx context.Context, leagueID string) (*models.League, error)
	IsOwner(ctx context.Context, identity, leagueID string) (bool, error)
	ApplyMembership(ctx context.Context, leagueID, identity string) error
}

type leagueDatabase struct {
	db  DatabaseHelper
	now func() time.Time
}

// NewLeagueDatabase initializes a new instance of league database with the provided db connection
func NewLeagueDatabase(db DatabaseHelper) LeagueDatabase {
	return &leagueDatabase{
		db:  db,
		now: time.Now,
	}
}

func (l *leagueDatabase) FindOne(ctx context.Context, leagueID string) (*models.League, error) {
	id, err := primitive.ObjectIDFromHex(leagueID)
	if err != nil {
		return nil, invites.ErrInvalidGroup
	}
	league := &models.League{}
	err = l.db.Collection(leagueName).FindOne(ctx, bson.M{"_id": id}).Decode(league)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, invites.ErrInvalidGroup
		}
		return nil, err
	}
	return league, nil
}

// IsOwner reports whether identity is the owner or one of the admins of the league
func (l *leagueDatabase) IsOwner(ctx context.Context, identity, leagueID string) (bool, error) {
	league, err := l.FindOne(ctx, leagueID)
	if err != nil {
		return false, err
	}
	return league.Details.ManagedBy(identity), nil
}

// ApplyMembership adds identity to the league members. $addToSet makes repeats harmless.
func (l *leagueDatabase) ApplyMembership(ctx context.Context, leagueID, identity string) error {
	id, err := primitive.ObjectIDFromHex(leagueID)
	if err != nil {
		return invites.ErrInvalidGroup
	}
	res, err := l.db.Collection(leagueName).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"league.members": identity},
			"$set":      bson.M{"league.updatedAt": primitive.NewDateTimeFromTime(l.now())},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return invites.ErrInvalidGroup
	}
	return nil
}
