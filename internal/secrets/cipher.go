// Package secrets protects provider refresh tokens at rest.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/benx421/receiptsync/internal/models"
)

// Cipher seals and opens refresh tokens using AES-256-GCM. Every write
// records the scheme tag next to the ciphertext; reads dispatch on that
// stored tag rather than inspecting the value itself.
type Cipher struct {
	key []byte
}

// NewCipher creates a Cipher from a 32-byte key. A nil or empty key
// disables encryption: Seal stores plaintext under the plaintext scheme.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != 0 && len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return &Cipher{key: key}, nil
}

// Seal encrypts the token and returns the ciphertext with the scheme tag
// to store alongside it.
func (c *Cipher) Seal(plaintext string) (string, models.TokenScheme, error) {
	if len(c.key) == 0 {
		return plaintext, models.TokenSchemePlaintext, nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", fmt.Errorf("failed to initialize GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), models.TokenSchemeAESGCM, nil
}

// Open decrypts a stored token according to its recorded scheme.
func (c *Cipher) Open(stored string, scheme models.TokenScheme) (string, error) {
	switch scheme {
	case models.TokenSchemePlaintext:
		return stored, nil
	case models.TokenSchemeAESGCM:
		return c.openAESGCM(stored)
	default:
		return "", fmt.Errorf("unknown token scheme %q", scheme)
	}
}

func (c *Cipher) openAESGCM(stored string) (string, error) {
	if len(c.key) == 0 {
		return "", fmt.Errorf("token is encrypted but no encryption key is configured")
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("failed to decode stored token: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to initialize GCM: %w", err)
	}

	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("stored token is too short")
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt token: %w", err)
	}

	return string(plaintext), nil
}
