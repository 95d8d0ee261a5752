// Package secrets encrypts integration credentials before they are stored.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

const encryptedPrefix = "enc:v1:"

var (
	// ErrInvalidKey is returned when the key is not 32 bytes of base64
	ErrInvalidKey = errors.New("secrets: key must be 32 bytes, base64 encoded")
	// ErrCiphertextInvalid is returned when stored data cannot be decrypted
	ErrCiphertextInvalid = errors.New("secrets: ciphertext invalid")
)

// Cipher seals and opens credential blobs
type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(stored string) ([]byte, error)
}

// XChaChaCipher seals data with XChaCha20-Poly1305
type XChaChaCipher struct {
	key []byte
}

// NewXChaChaCipher creates a cipher from a base64 encoded 32 byte key
func NewXChaChaCipher(base64Key string) (*XChaChaCipher, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	return &XChaChaCipher{key: key}, nil
}

// Encrypt returns "enc:v1:" followed by base64(nonce || ciphertext)
func (c *XChaChaCipher) Encrypt(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("secrets: init aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secrets: read nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Values without the prefix are
// returned as-is so rows written before encryption was enabled stay readable.
func (c *XChaChaCipher) Decrypt(stored string) ([]byte, error) {
	if !strings.HasPrefix(stored, encryptedPrefix) {
		return []byte(stored), nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encryptedPrefix))
	if err != nil {
		return nil, ErrCiphertextInvalid
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, fmt.Errorf("secrets: init aead: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return nil, ErrCiphertextInvalid
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCiphertextInvalid
	}
	return plaintext, nil
}

// PlaintextCipher stores data unencrypted. Used when no key is configured.
type PlaintextCipher struct{}

func (PlaintextCipher) Encrypt(plaintext []byte) (string, error) {
	return string(plaintext), nil
}

func (PlaintextCipher) Decrypt(stored string) ([]byte, error) {
	if strings.HasPrefix(stored, encryptedPrefix) {
		return nil, ErrCiphertextInvalid
	}
	return []byte(stored), nil
}

// New returns an XChaChaCipher when key is set and a PlaintextCipher otherwise
func New(base64Key string) (Cipher, error) {
	if base64Key == "" {
		return PlaintextCipher{}, nil
	}
	return NewXChaChaCipher(base64Key)
}
