package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fathima-sithara/messaging-service/internal/crypto"
	"github.com/fathima-sithara/messaging-service/internal/domain"
)

type KeyStore interface {
	FindActive(ctx context.Context, userID string) (*domain.UserKeyPair, error)
	FindVersion(ctx context.Context, userID string, version int) (*domain.UserKeyPair, error)
	Replace(ctx context.Context, userID, publicKey, encryptedPrivateKey string) (*domain.UserKeyPair, error)
	Deactivate(ctx context.Context, userID string) error
}

// KeysService manages the per-user asymmetric key lifecycle. Private keys
// only ever exist in the clear inside a request; at rest they are wrapped
// under a key derived from the user's secret.
type KeysService struct {
	keys KeyStore
	log  *zap.SugaredLogger
}

func NewKeysService(keys KeyStore, log *zap.SugaredLogger) *KeysService {
	return &KeysService{keys: keys, log: log}
}

// IssueKeys generates a fresh RSA pair for the user and installs it as the
// active generation, wrapping the private key under userSecret. Re-issuing
// bumps the key version; the prior generation is kept for old ciphertext.
func (s *KeysService) IssueKeys(ctx context.Context, userID, userSecret string) (*domain.UserKeyPair, error) {
	if userSecret == "" {
		return nil, fmt.Errorf("%w: secret required", domain.ErrBadRequest)
	}

	pubPEM, privPEM, err := crypto.GenerateKeyPair()
	if err != nil {
		s.log.Errorw("key generation failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrEncryption, err)
	}

	wrapped, err := crypto.WrapPrivateKey(privPEM, userSecret)
	if err != nil {
		s.log.Errorw("private key wrap failed", "user_id", userID, "err", err)
		return nil, err
	}

	k, err := s.keys.Replace(ctx, userID, pubPEM, wrapped)
	if errors.Is(err, domain.ErrConflict) {
		// lost a concurrent replacement; the winner's keys are the user's keys
		return s.keys.FindActive(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	s.log.Infow("issued encryption keys", "user_id", userID, "key_version", k.KeyVersion)
	return k, nil
}

func (s *KeysService) GetPublicKey(ctx context.Context, userID string) (string, error) {
	k, err := s.keys.FindActive(ctx, userID)
	if err != nil {
		return "", err
	}
	return k.PublicKey, nil
}

// GetPrivateKey unwraps the active private key with the user's secret.
func (s *KeysService) GetPrivateKey(ctx context.Context, userID, userSecret string) (string, error) {
	k, err := s.keys.FindActive(ctx, userID)
	if err != nil {
		return "", err
	}
	return crypto.UnwrapPrivateKey(k.EncryptedPrivateKey, userSecret)
}

// PrivateKeyForVersion unwraps a specific key generation, so messages
// encrypted before a rotation stay readable.
func (s *KeysService) PrivateKeyForVersion(ctx context.Context, userID string, version int, userSecret string) (string, error) {
	k, err := s.keys.FindVersion(ctx, userID, version)
	if err != nil {
		return "", err
	}
	return crypto.UnwrapPrivateKey(k.EncryptedPrivateKey, userSecret)
}

func (s *KeysService) DeactivateKeys(ctx context.Context, userID string) error {
	return s.keys.Deactivate(ctx, userID)
}
