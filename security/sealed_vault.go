package security

import (
	"context"
	"fmt"

	"github.com/goliatone/go-accounts/core"
)

// SealedVault encrypts credential blobs before handing them to the wrapped
// vault, so the underlying store only ever holds envelopes.
type SealedVault struct {
	inner    core.SecureVault
	provider core.SecretProvider
}

func NewSealedVault(inner core.SecureVault, provider core.SecretProvider) (*SealedVault, error) {
	if inner == nil {
		return nil, fmt.Errorf("security: inner vault is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("security: secret provider is required")
	}
	return &SealedVault{inner: inner, provider: provider}, nil
}

func (v *SealedVault) Store(ctx context.Context, service string, account string, blob []byte) error {
	sealed, err := v.provider.Encrypt(ctx, blob)
	if err != nil {
		return fmt.Errorf("security: seal vault entry: %w", err)
	}
	return v.inner.Store(ctx, service, account, sealed)
}

func (v *SealedVault) Retrieve(ctx context.Context, service string, account string) ([]byte, bool, error) {
	sealed, ok, err := v.inner.Retrieve(ctx, service, account)
	if err != nil || !ok {
		return nil, ok, err
	}
	blob, err := v.provider.Decrypt(ctx, sealed)
	if err != nil {
		return nil, false, fmt.Errorf("security: open vault entry: %w", err)
	}
	return blob, true, nil
}

func (v *SealedVault) Erase(ctx context.Context, service string, account string) error {
	return v.inner.Erase(ctx, service, account)
}

var _ core.SecureVault = (*SealedVault)(nil)
