package security

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/goliatone/go-accounts/core"
	"golang.org/x/crypto/nacl/secretbox"
)

const secretboxNonceSize = 24

// SecretboxSecretProvider seals payloads with nacl/secretbox. Key material
// that is not exactly 32 bytes is hashed with SHA-256.
type SecretboxSecretProvider struct {
	key      [32]byte
	identity keyIdentity
}

func NewSecretboxSecretProvider(keyMaterial []byte, opts ...Option) (*SecretboxSecretProvider, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	provider := &SecretboxSecretProvider{identity: resolveIdentity("secretbox", opts)}
	if len(key) == 32 {
		copy(provider.key[:], key)
	} else {
		provider.key = sha256.Sum256(key)
	}
	return provider, nil
}

func (p *SecretboxSecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	var nonce [secretboxNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}
	sealed := secretbox.Seal(nil, plaintext, &nonce, &p.key)
	return encodeEnvelope(envelope{
		KeyID:      p.identity.keyID,
		Version:    p.identity.version,
		Algorithm:  AlgorithmSecretbox,
		Nonce:      encodePayload(nonce[:]),
		Ciphertext: encodePayload(sealed),
	})
}

func (p *SecretboxSecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	env, err := decodeEnvelope(ciphertext)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(env, p.identity.keyID, p.identity.version, AlgorithmSecretbox); err != nil {
		return nil, err
	}
	rawNonce, err := decodePayload("nonce", env.Nonce)
	if err != nil {
		return nil, err
	}
	if len(rawNonce) != secretboxNonceSize {
		return nil, fmt.Errorf("security: invalid nonce length %d", len(rawNonce))
	}
	sealed, err := decodePayload("ciphertext payload", env.Ciphertext)
	if err != nil {
		return nil, err
	}
	if len(sealed) < secretbox.Overhead {
		return nil, fmt.Errorf("security: ciphertext too short")
	}
	var nonce [secretboxNonceSize]byte
	copy(nonce[:], rawNonce)
	plaintext, ok := secretbox.Open(nil, sealed, &nonce, &p.key)
	if !ok {
		return nil, fmt.Errorf("security: decrypt payload failed")
	}
	return plaintext, nil
}

func (p *SecretboxSecretProvider) KeyID() string {
	if p == nil {
		return ""
	}
	return p.identity.keyID
}

var _ core.SecretProvider = (*SecretboxSecretProvider)(nil)
