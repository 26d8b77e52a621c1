package databases

// go generate: mockery --name MembershipGrantDatabase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/league-invite-api/models"
)

const membershipGrantName = "membershipGrants"

// MembershipGrantDatabase queues grants whose membership could not be applied
type MembershipGrantDatabase interface {
	Enqueue(ctx context.Context, grant models.MembershipGrant, cause string, now time.Time) (models.PendingGrant, error)
	Pending(ctx context.Context, limit int) ([]models.PendingGrant, error)
	MarkApplied(ctx context.Context, id string, now time.Time) error
	MarkAttemptFailed(ctx context.Context, id, cause string, park bool, now time.Time) error
}

type membershipGrantDatabase struct {
	db DatabaseHelper
}

// NewMembershipGrantDatabase initializes a new instance of membership grant database with the provided db connection
func NewMembershipGrantDatabase(db DatabaseHelper) MembershipGrantDatabase {
	return &membershipGrantDatabase{
		db: db,
	}
}

func (m *membershipGrantDatabase) Enqueue(ctx context.Context, grant models.MembershipGrant, cause string, now time.Time) (models.PendingGrant, error) {
	pending := models.PendingGrant{
		ID:        uuid.New().String(),
		Grant:     grant,
		Status:    models.GrantPending,
		Attempts:  1,
		LastError: cause,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := m.db.Collection(membershipGrantName).InsertOne(ctx, pending); err != nil {
		return models.PendingGrant{}, err
	}
	return pending, nil
}

func (m *membershipGrantDatabase) Pending(ctx context.Context, limit int) ([]models.PendingGrant, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))
	cur, err := m.db.Collection(membershipGrantName).Find(ctx, bson.M{"status": models.GrantPending}, opts)
	if err != nil {
		return nil, err
	}
	var grants []models.PendingGrant
	if err := cur.All(ctx, &grants); err != nil {
		return nil, err
	}
	return grants, nil
}

func (m *membershipGrantDatabase) MarkApplied(ctx context.Context, id string, now time.Time) error {
	return m.updateOne(ctx, id, bson.M{
		"$set": bson.M{"status": models.GrantApplied, "updatedAt": now},
	})
}

func (m *membershipGrantDatabase) MarkAttemptFailed(ctx context.Context, id, cause string, park bool, now time.Time) error {
	set := bson.M{"lastError": cause, "updatedAt": now}
	if park {
		set["status"] = models.GrantFailed
	}
	return m.updateOne(ctx, id, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": set,
	})
}

func (m *membershipGrantDatabase) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := m.db.Collection(membershipGrantName).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("membership grant %s not found", id)
	}
	return nil
}
