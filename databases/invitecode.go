package databases

// go generate: mockery --name InviteCodeDatabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/league-invite-api/invites"
	"github.com/linesmerrill/league-invite-api/models"
)

const inviteCodeName = "inviteCodes"

// InviteCodeDatabase is the mongo backed invite store
type InviteCodeDatabase interface {
	Create(ctx context.Context, invite models.InviteCode) error
	TryRedeem(ctx context.Context, code string, now time.Time) (models.Redemption, error)
	Get(ctx context.Context, code string) (*models.InviteCode, error)
	EnsureIndexes(ctx context.Context) error
}

type inviteCodeDatabase struct {
	db DatabaseHelper
}

// NewInviteCodeDatabase initializes a new instance of inviteCode database with the provided db connection
func NewInviteCodeDatabase(db DatabaseHelper) InviteCodeDatabase {
	return &inviteCodeDatabase{
		db: db,
	}
}

// EnsureIndexes creates the unique index on code that Create relies on to detect collisions
func (c *inviteCodeDatabase) EnsureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(inviteCodeName).CreateIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("code_unique"),
	})
	if err != nil {
		return fmt.Errorf("create invite code index: %w", err)
	}
	return nil
}

func (c *inviteCodeDatabase) Create(ctx context.Context, invite models.InviteCode) error {
	_, err := c.db.Collection(inviteCodeName).InsertOne(ctx, invite)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return invites.ErrDuplicateCode
		}
		return err
	}
	return nil
}

// TryRedeem consumes one use with a single conditional findAndModify: the filter only
// matches while the code is redeemable at now, so two callers can never both take the last use.
func (c *inviteCodeDatabase) TryRedeem(ctx context.Context, code string, now time.Time) (models.Redemption, error) {
	filter := bson.M{
		"code":  code,
		"$expr": bson.M{"$lt": bson.A{"$usedCount", "$maxUses"}},
		"$or": bson.A{
			bson.M{"expiresAt": nil},
			bson.M{"expiresAt": bson.M{"$gt": now.UTC()}},
		},
	}
	update := bson.M{"$inc": bson.M{"usedCount": 1}}

	invite := &models.InviteCode{}
	err := c.db.Collection(inviteCodeName).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(invite)
	if err == nil {
		return models.Redemption{Outcome: models.Redeemed, Invite: *invite}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Redemption{}, err
	}

	// nothing was written; read the record only to say why
	current, err := c.Get(ctx, code)
	if errors.Is(err, invites.ErrInvalidCode) {
		return models.Redemption{Outcome: models.RedeemNotFound}, nil
	}
	if err != nil {
		return models.Redemption{}, err
	}
	outcome := models.ClassifyRedemption(current, now)
	if outcome == models.Redeemed {
		// the record did not exist when the update ran
		outcome = models.RedeemNotFound
	}
	return models.Redemption{Outcome: outcome, Invite: *current}, nil
}

func (c *inviteCodeDatabase) Get(ctx context.Context, code string) (*models.InviteCode, error) {
	invite := &models.InviteCode{}
	err := c.db.Collection(inviteCodeName).FindOne(ctx, bson.M{"code": code}).Decode(invite)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, invites.ErrInvalidCode
		}
		return nil, err
	}
	return invite, nil
}
