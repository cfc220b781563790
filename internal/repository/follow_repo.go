package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/messaging-service/internal/domain"
)

type FollowRepository struct {
	coll *mongo.Collection
}

func NewFollowRepository(db *mongo.Database) *FollowRepository {
	return &FollowRepository{coll: db.Collection(CollFollows)}
}

// Insert adds a follow edge. A duplicate edge reports domain.ErrConflict.
func (r *FollowRepository) Insert(ctx context.Context, f *domain.Follow) error {
	if _, err := r.coll.InsertOne(ctx, f); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: already following", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// Delete removes a follow edge; removing a missing edge is not an error.
func (r *FollowRepository) Delete(ctx context.Context, followerID, followingID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"follower_id": followerID, "following_id": followingID})
	return err
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	err := r.coll.FindOne(ctx, bson.M{"follower_id": followerID, "following_id": followingID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *FollowRepository) Followers(ctx context.Context, userID string, page, limit int64) ([]*domain.Follow, error) {
	return r.list(ctx, bson.M{"following_id": userID}, page, limit)
}

func (r *FollowRepository) Following(ctx context.Context, userID string, page, limit int64) ([]*domain.Follow, error) {
	return r.list(ctx, bson.M{"follower_id": userID}, page, limit)
}

func (r *FollowRepository) CountFollowers(ctx context.Context, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"following_id": userID})
}

func (r *FollowRepository) CountFollowing(ctx context.Context, userID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"follower_id": userID})
}

func (r *FollowRepository) list(ctx context.Context, filter bson.M, page, limit int64) ([]*domain.Follow, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*domain.Follow{}
	for cur.Next(ctx) {
		var f domain.Follow
		if err := cur.Decode(&f); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, cur.Err()
}
