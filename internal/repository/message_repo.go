package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/messaging-service/internal/domain"
)

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(CollMessages)}
}

func (r *MessageRepository) Insert(ctx context.Context, m *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, m)
	return err
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// visibleTo scopes a filter to messages userID has not hidden.
func visibleTo(filter bson.M, userID string) bson.M {
	filter["is_deleted"] = false
	filter["deleted_for"] = bson.M{"$ne": userID}
	return filter
}

// ListChat returns one page of a chat's messages, oldest first within the
// page. Pages count back from the newest message.
func (r *MessageRepository) ListChat(ctx context.Context, chatID, viewerID string, page, limit int64) ([]*domain.Message, error) {
	filter := visibleTo(bson.M{"chat_id": chatID}, viewerID)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	msgs, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkDelivered advances messages from SENT to DELIVERED. Messages in any
// other state are left alone.
func (r *MessageRepository) MarkDelivered(ctx context.Context, ids []string) (int64, error) {
	now := time.Now().UTC()
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": domain.StatusSent},
		bson.M{"$set": bson.M{
			"status":       domain.StatusDelivered,
			"delivered_at": now,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MarkRead advances messages addressed to callerID from SENT or DELIVERED to
// READ. Messages addressed to anyone else in the batch are silently skipped,
// and READ never regresses.
func (r *MessageRepository) MarkRead(ctx context.Context, ids []string, callerID string) (int64, error) {
	now := time.Now().UTC()
	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"_id":         bson.M{"$in": ids},
			"receiver_id": callerID,
			"status":      bson.M{"$in": bson.A{domain.StatusSent, domain.StatusDelivered}},
		},
		bson.M{"$set": bson.M{
			"status":     domain.StatusRead,
			"read_at":    now,
			"updated_at": now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MessageRepository) FindUnreadIDs(ctx context.Context, chatID, userID string) ([]string, error) {
	filter := visibleTo(bson.M{
		"chat_id":     chatID,
		"receiver_id": userID,
		"status":      bson.M{"$in": bson.A{domain.StatusSent, domain.StatusDelivered}},
	}, userID)
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

func (r *MessageRepository) SoftDelete(ctx context.Context, id, userID string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"deleted_for": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MessageRepository) Search(ctx context.Context, chatID, viewerID, query string, page, limit int64) ([]*domain.Message, error) {
	filter := visibleTo(bson.M{"chat_id": chatID, "$text": bson.M{"$search": query}}, viewerID)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	return r.find(ctx, filter, opts)
}

func (r *MessageRepository) Media(ctx context.Context, chatID, viewerID string, mediaType domain.MessageType, page, limit int64) ([]*domain.Message, error) {
	filter := visibleTo(bson.M{"chat_id": chatID, "message_type": mediaType}, viewerID)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	return r.find(ctx, filter, opts)
}

// CountUnread is the derived unread total for a user: addressed to them, not
// yet READ, not hidden for them.
func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	filter := visibleTo(bson.M{
		"receiver_id": userID,
		"status":      bson.M{"$in": bson.A{domain.StatusSent, domain.StatusDelivered}},
	}, userID)
	return r.coll.CountDocuments(ctx, filter)
}

func (r *MessageRepository) CountUnreadInChat(ctx context.Context, chatID, userID string) (int64, error) {
	filter := visibleTo(bson.M{
		"chat_id":     chatID,
		"receiver_id": userID,
		"status":      bson.M{"$in": bson.A{domain.StatusSent, domain.StatusDelivered}},
	}, userID)
	return r.coll.CountDocuments(ctx, filter)
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Message, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*domain.Message{}
	for cur.Next(ctx) {
		var m domain.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}
