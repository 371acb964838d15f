package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aretw0/sessionshard/pkg/ports"
)

// envelopeMagic marks a stored value as an encrypted envelope.
var envelopeMagic = []byte("\x00sse1")

// ErrNotEncrypted is returned when a stored value is not an encrypted envelope.
var ErrNotEncrypted = errors.New("session value is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// AllowPlaintext returns values written before encryption was enabled
	// as they are, instead of failing with ErrNotEncrypted.
	AllowPlaintext bool
}

type encryptionMiddleware struct {
	next   ports.SessionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that stores session values as
// AES-GCM envelopes: magic header, nonce, ciphertext.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

// ParseKey decodes a 32 byte key given as hex or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if key, err := hex.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, errors.New("encryption key must be 32 bytes, hex or base64 encoded")
}

func (m *encryptionMiddleware) Write(ctx context.Context, sessionID string, value []byte) error {
	ciphertext, err := encrypt(value, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	envelope := make([]byte, 0, len(envelopeMagic)+len(ciphertext))
	envelope = append(envelope, envelopeMagic...)
	envelope = append(envelope, ciphertext...)
	return m.next.Write(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Read(ctx context.Context, sessionID string) ([]byte, error) {
	envelope, err := m.next.Read(ctx, sessionID)
	if err != nil || envelope == nil {
		return envelope, err
	}

	ciphertext, ok := bytes.CutPrefix(envelope, envelopeMagic)
	if !ok {
		if m.config.AllowPlaintext {
			return envelope, nil
		}
		return nil, ErrNotEncrypted
	}

	// Try Active, then Fallback
	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}
	return plain, nil
}

func (m *encryptionMiddleware) Destroy(ctx context.Context, sessionID string) error {
	return m.next.Destroy(ctx, sessionID)
}

func (m *encryptionMiddleware) GC(ctx context.Context, maxLifetime time.Duration) error {
	return m.next.GC(ctx, maxLifetime)
}

func (m *encryptionMiddleware) Close() error {
	return m.next.Close()
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
