package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/messaging-service/internal/domain"
	"github.com/fathima-sithara/messaging-service/internal/utils"
)

type BlockedUserRepository struct {
	coll *mongo.Collection
}

func NewBlockedUserRepository(db *mongo.Database) *BlockedUserRepository {
	return &BlockedUserRepository{coll: db.Collection(CollBlocked)}
}

// Upsert records a block edge. Blocking an already-blocked user is absorbed
// as success.
func (r *BlockedUserRepository) Upsert(ctx context.Context, blockerID, blockedID, reason string) error {
	filter := bson.M{"blocker_id": blockerID, "blocked_id": blockedID}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        utils.NewID(),
			"created_at": time.Now().UTC(),
		},
		"$set": bson.M{"reason": reason},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Delete removes a block edge; unblocking a user who was never blocked is not
// an error.
func (r *BlockedUserRepository) Delete(ctx context.Context, blockerID, blockedID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"blocker_id": blockerID, "blocked_id": blockedID})
	return err
}

func (r *BlockedUserRepository) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	err := r.coll.FindOne(ctx, bson.M{"blocker_id": blockerID, "blocked_id": blockedID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BlockedUserRepository) List(ctx context.Context, blockerID string, page, limit int64) ([]*domain.BlockedUser, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, bson.M{"blocker_id": blockerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*domain.BlockedUser{}
	for cur.Next(ctx) {
		var b domain.BlockedUser
		if err := cur.Decode(&b); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, cur.Err()
}
