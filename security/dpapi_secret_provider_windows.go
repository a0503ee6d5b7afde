//go:build windows

package security

import (
	"context"
	"fmt"

	"github.com/billgraziano/dpapi"
)

func (p *DPAPISecretProvider) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	sealed, err := dpapi.EncryptBytes(plaintext)
	if err != nil {
		return nil, fmt.Errorf("security: dpapi encrypt: %w", err)
	}
	return encodeEnvelope(envelope{
		KeyID:      p.KeyID(),
		Algorithm:  AlgorithmDPAPI,
		Ciphertext: encodePayload(sealed),
	})
}

func (p *DPAPISecretProvider) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	env, err := decodeEnvelope(ciphertext)
	if err != nil {
		return nil, err
	}
	if err := checkEnvelope(env, p.KeyID(), 0, AlgorithmDPAPI); err != nil {
		return nil, err
	}
	sealed, err := decodePayload("ciphertext payload", env.Ciphertext)
	if err != nil {
		return nil, err
	}
	plaintext, err := dpapi.DecryptBytes(sealed)
	if err != nil {
		return nil, fmt.Errorf("security: dpapi decrypt: %w", err)
	}
	return plaintext, nil
}

// DPAPIAvailable reports whether the current platform supports DPAPI.
func DPAPIAvailable() bool {
	return true
}
