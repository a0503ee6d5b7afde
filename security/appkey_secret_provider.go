package security

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-accounts/core"
)

// Option configures the key id and version stamped on sealed envelopes.
type Option func(*keyIdentity)

type keyIdentity struct {
	keyID   string
	version int
}

func WithKeyID(id string) Option {
	return func(identity *keyIdentity) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			identity.keyID = trimmed
		}
	}
}

func WithVersion(version int) Option {
	return func(identity *keyIdentity) {
		if version > 0 {
			identity.version = version
		}
	}
}

func resolveIdentity(defaultKeyID string, opts []Option) keyIdentity {
	identity := keyIdentity{keyID: defaultKeyID, version: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&identity)
		}
	}
	return identity
}

// AppKeySecretProvider seals payloads with AES-GCM under an application key.
type AppKeySecretProvider struct {
	aead     cipher.AEAD
	identity keyIdentity
}

func NewAppKeySecretProvider(keyMaterial []byte, opts ...Option) (*AppKeySecretProvider, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	block, err := aes.NewCipher(normalizeKey(key))
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return &AppKeySecretProvider{aead: aead, identity: resolveIdentity("app-key", opts)}, nil
}

func NewAppKeySecretProviderFromString(key string, opts ...Option) (*AppKeySecretProvider, error) {
	return NewAppKeySecretProvider([]byte(key), opts...)
}

func (p *AppKeySecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if p == nil || p.aead == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}
	return encodeEnvelope(envelope{
		KeyID:      p.identity.keyID,
		Version:    p.identity.version,
		Algorithm:  AlgorithmAESGCM,
		Nonce:      encodePayload(nonce),
		Ciphertext: encodePayload(p.aead.Seal(nil, nonce, plaintext, nil)),
	})
}

func (p *AppKeySecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil || p.aead == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	env, err := decodeEnvelope(ciphertext)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(env, p.identity.keyID, p.identity.version, AlgorithmAESGCM); err != nil {
		return nil, err
	}
	nonce, err := decodePayload("nonce", env.Nonce)
	if err != nil {
		return nil, err
	}
	if len(nonce) != p.aead.NonceSize() {
		return nil, fmt.Errorf("security: invalid nonce length %d", len(nonce))
	}
	sealed, err := decodePayload("ciphertext payload", env.Ciphertext)
	if err != nil {
		return nil, err
	}
	plaintext, err := p.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	return plaintext, nil
}

func (p *AppKeySecretProvider) KeyID() string {
	if p == nil {
		return ""
	}
	return p.identity.keyID
}

func (p *AppKeySecretProvider) Version() int {
	if p == nil {
		return 0
	}
	return p.identity.version
}

// normalizeKey keeps valid AES key sizes and hashes anything else to 32 bytes.
func normalizeKey(value []byte) []byte {
	if len(value) == 16 || len(value) == 24 || len(value) == 32 {
		return append([]byte{}, value...)
	}
	sum := sha256.Sum256(value)
	return sum[:]
}

var _ core.SecretProvider = (*AppKeySecretProvider)(nil)
