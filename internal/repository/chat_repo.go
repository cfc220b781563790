package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/messaging-service/internal/domain"
)

type ChatRepository struct {
	coll *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{coll: db.Collection(CollChats)}
}

func (r *ChatRepository) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	var c domain.Chat
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *ChatRepository) FindByPair(ctx context.Context, a, b string) (*domain.Chat, error) {
	var c domain.Chat
	filter := bson.M{"pair_key": domain.PairKey(a, b), "is_active": true}
	if err := r.coll.FindOne(ctx, filter).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Insert persists a new chat. A duplicate pair_key reports domain.ErrConflict
// so the caller can re-fetch the winner of the race.
func (r *ChatRepository) Insert(ctx context.Context, c *domain.Chat) error {
	c.PairKey = domain.PairKey(c.Participants[0], c.Participants[1])
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: chat already exists", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *ChatRepository) FindUserChats(ctx context.Context, userID string) ([]*domain.Chat, error) {
	filter := bson.M{"participants": userID, "is_active": true}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_time", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*domain.Chat{}
	for cur.Next(ctx) {
		var c domain.Chat
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, cur.Err()
}

func (r *ChatRepository) Deactivate(ctx context.Context, id string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplySend records a freshly persisted message on the chat projection: last
// message ref, last message time, and the receiver's unread counter.
func (r *ChatRepository) ApplySend(ctx context.Context, chatID, messageID, receiverID string, at time.Time) error {
	_, err := r.coll.UpdateByID(ctx, chatID, bson.M{
		"$set": bson.M{
			"last_message_id":   messageID,
			"last_message_time": at,
			"updated_at":        at,
		},
		"$inc": bson.M{"unread_count." + receiverID: 1},
	})
	return err
}

// SetUnread overwrites a participant's cached unread counter with a derived
// value. Recomputing instead of decrementing keeps the projection from
// drifting under concurrent reads.
func (r *ChatRepository) SetUnread(ctx context.Context, chatID, userID string, n int64) error {
	_, err := r.coll.UpdateByID(ctx, chatID, bson.M{
		"$set": bson.M{"unread_count." + userID: n, "updated_at": time.Now().UTC()},
	})
	return err
}
