package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/fathima-sithara/messaging-service/internal/domain"
)

const (
	wrapIterations = 100000
	wrapSaltLen    = 32
	wrapKeyLen     = 32
)

func deriveWrapKey(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, wrapIterations, wrapKeyLen, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// WrapPrivateKey encrypts a PEM private key under a key derived from the
// user's secret. Output format is hex(salt):hex(nonce):hex(ciphertext), where
// the ciphertext carries the GCM tag.
func WrapPrivateKey(privatePEM, secret string) (string, error) {
	salt := make([]byte, wrapSaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncryption, err)
	}

	aead, err := newGCM(deriveWrapKey(secret, salt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncryption, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncryption, err)
	}

	ct := aead.Seal(nil, nonce, []byte(privatePEM), nil)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ct), nil
}

// UnwrapPrivateKey reverses WrapPrivateKey. A wrong secret or a tampered blob
// fails with domain.ErrDecryption.
func UnwrapPrivateKey(blob, secret string) (string, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("%w: malformed key blob", domain.ErrDecryption)
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	nonce, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}

	aead, err := newGCM(deriveWrapKey(secret, salt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	if len(nonce) != aead.NonceSize() {
		return "", fmt.Errorf("%w: bad nonce length", domain.ErrDecryption)
	}

	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}
	return string(pt), nil
}
