package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize      = 32
	nonceSize    = 24
	sealedPrefix = "v1:"
)

var passphraseSalt = []byte("pawpantry/payout-seal/v1")

var (
	// ErrSealKeyRequired is returned when no sealing key is configured.
	ErrSealKeyRequired = errors.New("payout seal key is required")
	// ErrInvalidSealed signals a value that was not produced by Seal or was tampered with.
	ErrInvalidSealed = errors.New("invalid sealed value")
)

// Sealer encrypts short secrets such as bank account numbers with
// NaCl secretbox. Each value gets a random nonce.
type Sealer struct {
	key  [keySize]byte
	rand io.Reader
}

// NewSealer accepts either a base64 encoded 32 byte key or a passphrase,
// which is stretched with argon2id.
func NewSealer(key string) (*Sealer, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSealKeyRequired
	}
	s := &Sealer{rand: rand.Reader}
	if raw, err := base64.StdEncoding.DecodeString(key); err == nil && len(raw) == keySize {
		copy(s.key[:], raw)
		return s, nil
	}
	derived := argon2.IDKey([]byte(key), passphraseSalt, 1, 64*1024, 2, keySize)
	copy(s.key[:], derived)
	return s, nil
}

// Seal encrypts plaintext and returns a printable token.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(s.rand, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return "", ErrInvalidSealed
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidSealed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	out, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrInvalidSealed
	}
	return string(out), nil
}

// Last4 returns the trailing four characters used for display.
func Last4(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 4 {
		return value
	}
	return value[len(value)-4:]
}
