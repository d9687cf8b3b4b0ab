// Package cardcrypto opens the card payload envelopes submitted at checkout.
package cardcrypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/davivienda-ecommerce/storefront-backend/pkg/config"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidEnvelope is returned when an envelope cannot be decoded or opened.
var ErrInvalidEnvelope = errors.New("invalid card envelope")

// Decrypter turns an envelope into the plaintext card JSON.
type Decrypter interface {
	Decrypt(envelope string) ([]byte, error)
}

// New builds the decrypter selected by the configured mode.
func New(cfg config.CardCryptoConfig) (Decrypter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", config.CardCryptoModeBase64:
		return Base64{}, nil
	case config.CardCryptoModeSealed:
		key, err := decodeBase64(cfg.Key)
		if err != nil {
			return nil, fmt.Errorf("decoding card crypto key: %w", err)
		}
		return NewSealed(key)
	default:
		return nil, fmt.Errorf("unsupported card crypto mode %q", cfg.Mode)
	}
}

// Base64 treats the envelope as base64 encoded plaintext.
type Base64 struct{}

func (Base64) Decrypt(envelope string) ([]byte, error) {
	plain, err := decodeBase64(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return plain, nil
}

// Sealed opens base64(nonce || ciphertext) envelopes sealed with XChaCha20-Poly1305.
type Sealed struct {
	key []byte
}

// NewSealed validates the key length.
func NewSealed(key []byte) (*Sealed, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("card crypto key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Sealed{key: append([]byte(nil), key...)}, nil
}

func (s *Sealed) Decrypt(envelope string) ([]byte, error) {
	raw, err := decodeBase64(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: envelope too short", ErrInvalidEnvelope)
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return plain, nil
}

// Seal produces an envelope Decrypt accepts. Clients and tests use it.
func (s *Sealed) Seal(plain []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("reading nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, plain, nil)), nil
}

func decodeBase64(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, errors.New("empty value")
	}
	if out, err := base64.StdEncoding.DecodeString(value); err == nil {
		return out, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(value, "="))
}
