package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrSecretRequired   = errors.New("storage secret is required")
	ErrInvalidSealedBox = errors.New("invalid sealed value")
)

// KeyParams configures the Argon2id derivation of the storage key.
type KeyParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	Salt        string
}

// DefaultKeyParams returns the Argon2id parameters used to derive storage keys.
// The salt is fixed so the same secret always yields the same key across restarts.
func DefaultKeyParams() KeyParams {
	return KeyParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		Salt:        "hireloop/storage/v1",
	}
}

// Sealer encrypts persisted session values with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a key from secret with default parameters.
func NewSealer(secret string) (*Sealer, error) {
	return NewSealerWithParams(secret, DefaultKeyParams())
}

// NewSealerWithParams derives a key from secret with the given Argon2id parameters.
func NewSealerWithParams(secret string, params KeyParams) (*Sealer, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}

	key := argon2.IDKey([]byte(secret), []byte(params.Salt), params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce||ciphertext, base64 encoded.
func (s *Sealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	box := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Tampered or foreign values return ErrInvalidSealedBox.
func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidSealedBox
	}
	if len(box) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrInvalidSealedBox
	}

	nonce, ciphertext := box[:s.aead.NonceSize()], box[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidSealedBox
	}

	return string(plaintext), nil
}
