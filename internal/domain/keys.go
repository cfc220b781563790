package domain

import "time"

// UserKeyPair holds one generation of a user's RSA key pair. The private key
// is stored wrapped under a key derived from the user's secret and is never
// persisted in the clear. At most one record per user is active; replaced
// generations stay behind so old ciphertext remains decryptable.
type UserKeyPair struct {
	ID                  string    `bson:"_id" json:"id"`
	UserID              string    `bson:"user_id" json:"user_id"`
	PublicKey           string    `bson:"public_key" json:"public_key"`
	EncryptedPrivateKey string    `bson:"encrypted_private_key" json:"-"`
	KeyVersion          int       `bson:"key_version" json:"key_version"`
	IsActive            bool      `bson:"is_active" json:"is_active"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time `bson:"updated_at" json:"updated_at"`
}
