// Package cryptox implements the symmetric cipher protecting customer PII
// at rest. Payloads are sealed with AES-256-GCM under a random 16-byte
// nonce; the nonce is prepended to the ciphertext so every blob is
// self-describing and decrypts with the shared key alone.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/mvoronin/parceltrack/internal/common"
)

const (
	// KeySize is the required key length (AES-256).
	KeySize = 32
	// NonceSize is the length of the random nonce embedded in every blob.
	NonceSize = 16
)

// Cipher seals and opens byte payloads with a single symmetric key supplied
// at construction. The key is injected once at process start; Cipher holds
// no other state and is safe for concurrent use.
//
// Key material, nonces and plaintext must never be logged by callers.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a 32-byte key. Any other key length fails with
// common.ErrCrypto.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", common.ErrCrypto, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce and returns
// nonce || ciphertext. A nonce is never reused.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	// Seal appends to nonce, producing the self-describing blob.
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. A truncated blob, a blob sealed
// under a different key, or any flipped bit fails with common.ErrCrypto;
// garbage is never returned silently.
func (c *Cipher) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < NonceSize {
		return nil, fmt.Errorf("%w: blob shorter than nonce", common.ErrCrypto)
	}
	nonce, ciphertext := blob[:NonceSize], blob[NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	return plaintext, nil
}

// EncryptJSON serializes v to JSON and seals the result.
func (c *Cipher) EncryptJSON(v any) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	blob, err := c.Encrypt(plaintext)
	common.WipeByteArray(plaintext)
	return blob, err
}

// DecryptJSON opens blob and unmarshals the plaintext into v. The
// intermediate plaintext buffer is wiped before returning.
func (c *Cipher) DecryptJSON(blob []byte, v any) error {
	plaintext, err := c.Decrypt(blob)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	return nil
}
