// internal/pkg/sealed/sealed.go
package sealed

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed is an encrypted-at-rest string as stored in the database. The type
// distinction from Opened keeps plaintext out of persistence code paths.
type Sealed string

// Opened is decrypted content. It is never written to storage directly.
type Opened string

// Cipher seals and opens values with a single service key.
type Cipher struct {
	key []byte
}

// NewCipher builds a cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("sealed: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Cipher{key: key}, nil
}

// Seal encrypts plaintext and returns a base64 value safe to persist.
func (c *Cipher) Seal(plaintext Opened) (Sealed, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("sealed: failed to build aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("sealed: failed to generate nonce: %w", err)
	}

	box := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Sealed(base64.StdEncoding.EncodeToString(box)), nil
}

// Open decrypts a stored value. A failure here is always an error, never a
// silent passthrough of the ciphertext.
func (c *Cipher) Open(stored Sealed) (Opened, error) {
	raw, err := base64.StdEncoding.DecodeString(string(stored))
	if err != nil {
		return "", fmt.Errorf("sealed: invalid ciphertext encoding: %w", err)
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("sealed: failed to build aead: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("sealed: ciphertext shorter than nonce")
	}

	nonce, box := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return "", fmt.Errorf("sealed: decryption failed: %w", err)
	}

	return Opened(plaintext), nil
}
