package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fathima-sithara/messaging-service/internal/domain"
	"github.com/fathima-sithara/messaging-service/internal/utils"
)

type UserKeysRepository struct {
	coll *mongo.Collection
}

func NewUserKeysRepository(db *mongo.Database) *UserKeysRepository {
	return &UserKeysRepository{coll: db.Collection(CollUserKeys)}
}

func (r *UserKeysRepository) FindActive(ctx context.Context, userID string) (*domain.UserKeyPair, error) {
	var k domain.UserKeyPair
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "is_active": true}).Decode(&k)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *UserKeysRepository) FindVersion(ctx context.Context, userID string, version int) (*domain.UserKeyPair, error) {
	var k domain.UserKeyPair
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "key_version": version}).Decode(&k)
	if err == mongo.ErrNoDocuments {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// Replace installs a new key generation: the current active record (if any)
// is deactivated and kept for historical decryption, and the new record gets
// the next version number. The partial unique index on active records makes
// concurrent replacements lose with domain.ErrConflict instead of producing
// two active generations.
func (r *UserKeysRepository) Replace(ctx context.Context, userID, publicKey, encryptedPrivateKey string) (*domain.UserKeyPair, error) {
	version := 1
	cur, err := r.FindActive(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if cur != nil {
		version = cur.KeyVersion + 1
		_, err = r.coll.UpdateByID(ctx, cur.ID, bson.M{
			"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()},
		})
		if err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	k := &domain.UserKeyPair{
		ID:                  utils.NewID(),
		UserID:              userID,
		PublicKey:           publicKey,
		EncryptedPrivateKey: encryptedPrivateKey,
		KeyVersion:          version,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := r.coll.InsertOne(ctx, k); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: concurrent key replacement", domain.ErrConflict)
		}
		return nil, err
	}
	return k, nil
}

func (r *UserKeysRepository) Deactivate(ctx context.Context, userID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	return err
}
