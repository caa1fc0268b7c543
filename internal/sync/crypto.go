package sync

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize          = 32 // AES-256
	saltSize         = 16
	pbkdf2Iterations = 100000
)

// ErrDecrypt is returned when a payload cannot be opened with the configured key
var ErrDecrypt = errors.New("decryption failed: invalid key or corrupted data")

// Crypto seals sync payloads with AES-256-GCM
type Crypto struct {
	key  []byte
	aead cipher.AEAD
}

// DeriveKey stretches a password into an AES-256 key
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keySize, sha256.New)
}

// NewCrypto creates a sealer for an already derived key
func NewCrypto(key []byte) (*Crypto, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Crypto{key: key, aead: aead}, nil
}

// GenerateSalt returns a random salt for key derivation
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext)
func (c *Crypto) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt
func (c *Crypto) Decrypt(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	n := c.aead.NonceSize()
	if len(data) < n {
		return nil, errors.New("ciphertext too short")
	}

	plaintext, err := c.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Fingerprint is a short, shareable identifier of the key
func (c *Crypto) Fingerprint() string {
	sum := sha256.Sum256(c.key)
	return base64.RawURLEncoding.EncodeToString(sum[:])[:16]
}
