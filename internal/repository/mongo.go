package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollChats    = "chats"
	CollMessages = "messages"
	CollFollows  = "follows"
	CollBlocked  = "blocked_users"
	CollUserKeys = "user_keys"
)

func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes the invariants depend on. The unique
// indexes are what actually enforce pair-uniqueness and single-active-key
// under concurrent writers; application code only reacts to the conflicts.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollChats).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// one active chat per unordered pair; deactivated chats stay behind
			Keys: bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}).
				SetName("chat_pair_unique"),
		},
		{
			Keys:    bson.D{{Key: "participants", Value: 1}, {Key: "last_message_time", Value: -1}},
			Options: options.Index().SetName("chat_participant_recent"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollMessages).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("msg_chat_created"),
		},
		{
			Keys:    bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("msg_receiver_status"),
		},
		{
			Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "message_type", Value: 1}},
			Options: options.Index().SetName("msg_chat_type"),
		},
		{
			// Only plaintext-bearing fields are searchable; ciphertext is not.
			Keys: bson.D{
				{Key: "attachment.filename", Value: "text"},
				{Key: "contact_data.name", Value: "text"},
				{Key: "location_data.address", Value: "text"},
			},
			Options: options.Index().SetName("msg_text_search"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollFollows).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "follower_id", Value: 1}, {Key: "following_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("follow_pair_unique"),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollBlocked).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "blocker_id", Value: 1}, {Key: "blocked_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("block_pair_unique"),
	})
	if err != nil {
		return err
	}

	_, err = db.Collection(CollUserKeys).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}).
				SetName("keys_single_active"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "key_version", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("keys_user_version"),
		},
	})
	return err
}
