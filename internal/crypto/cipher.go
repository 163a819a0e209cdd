// Package crypto provides the content cipher for note bodies and password
// hashing for the auth layer.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrDecrypt is returned when a cipher token is tampered with or otherwise
// unreadable. Callers are expected to absorb it into an empty-content result.
var ErrDecrypt = errors.New("crypto: cannot decrypt content")

// Cipher encrypts and decrypts note bodies at rest with AES-256-GCM. The key
// is derived once from the configured secret, so tokens survive restarts as
// long as the secret is unchanged.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 256-bit key from secret via SHA-256 and builds the AEAD.
func NewCipher(secret string) (*Cipher, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: new gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns a
// base64url token of nonce||ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Any malformed or tampered token
// yields ErrDecrypt; the underlying cause is not distinguished.
func (c *Cipher) Decrypt(token string) (string, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrDecrypt
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrDecrypt
	}
	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
