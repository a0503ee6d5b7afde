package core

import (
	"context"
	"net/url"
	"slices"
	"strings"
)

// CredentialEnvironmentsKey is the reserved base key under which the vault
// adapter records which environments hold a credential for an account. Only
// environment names are written there, never credential bytes. Reserved keys
// are rejected by the NamespacedStore accessors.
const CredentialEnvironmentsKey = ReservedBaseKeyPrefix + "credential_environments"

// CredentialVault routes the account credential to a SecureVault under a fixed
// service namespace.
type CredentialVault struct {
	vault   SecureVault
	service string
	index   *NamespacedStore
}

func NewCredentialVault(vault SecureVault, service string, index *NamespacedStore) *CredentialVault {
	return &CredentialVault{vault: vault, service: strings.TrimSpace(service), index: index}
}

func (v *CredentialVault) Service() string {
	if v == nil {
		return ""
	}
	return v.service
}

// VaultAccountKey is the vault account entry for an account in environment.
// Both segments are escaped so the separator can only appear between them;
// the default environment uses the escaped identifier alone.
func VaultAccountKey(accountID string, environment string) string {
	if environment == "" {
		return url.QueryEscape(accountID)
	}
	return url.QueryEscape(accountID) + scopedKeySeparator + url.QueryEscape(environment)
}

func (v *CredentialVault) Store(ctx context.Context, accountID string, environment string, blob []byte) error {
	secure, err := v.secureVault(accountID)
	if err != nil {
		return err
	}
	if err := secure.Store(ctx, v.service, VaultAccountKey(accountID, environment), blob); err != nil {
		return NewVaultError(err, "core: vault store failed").
			WithMetadata(map[string]any{"account_id": accountID, "environment": environment})
	}
	return v.recordEnvironment(ctx, accountID, environment)
}

func (v *CredentialVault) Retrieve(ctx context.Context, accountID string, environment string) ([]byte, bool, error) {
	secure, err := v.secureVault(accountID)
	if err != nil {
		return nil, false, err
	}
	blob, ok, err := secure.Retrieve(ctx, v.service, VaultAccountKey(accountID, environment))
	if err != nil {
		return nil, false, NewVaultError(err, "core: vault retrieve failed").
			WithMetadata(map[string]any{"account_id": accountID, "environment": environment})
	}
	return blob, ok, nil
}

// Erase removes the credential for one environment. An absent entry is not an
// error.
func (v *CredentialVault) Erase(ctx context.Context, accountID string, environment string) error {
	secure, err := v.secureVault(accountID)
	if err != nil {
		return err
	}
	if err := secure.Erase(ctx, v.service, VaultAccountKey(accountID, environment)); err != nil {
		return NewVaultError(err, "core: vault erase failed").
			WithMetadata(map[string]any{"account_id": accountID, "environment": environment})
	}
	return v.forgetEnvironment(ctx, accountID, environment)
}

// EraseAll removes the credential for the default environment and for every
// environment recorded for the account.
func (v *CredentialVault) EraseAll(ctx context.Context, accountID string) error {
	environments, err := v.Environments(ctx, accountID)
	if err != nil {
		return err
	}
	if !slices.Contains(environments, "") {
		environments = append([]string{""}, environments...)
	}
	for _, environment := range environments {
		if err := v.Erase(ctx, accountID, environment); err != nil {
			return err
		}
	}
	return nil
}

// Environments lists the environments a credential was stored under.
func (v *CredentialVault) Environments(ctx context.Context, accountID string) ([]string, error) {
	if v == nil || v.index == nil {
		return nil, nil
	}
	kv := v.index.Substrate()
	if kv == nil {
		return nil, nil
	}
	raw, ok, err := kv.Get(ctx, ScopedKey(CredentialEnvironmentsKey, accountID, ""))
	if err != nil {
		return nil, NewStoreError(err, "core: read credential environments").
			WithMetadata(map[string]any{"account_id": accountID})
	}
	if !ok {
		return nil, nil
	}
	var environments []string
	if mismatch, err := decodeNativeValue(raw, &environments); err != nil || mismatch {
		return nil, NewEncodingError(err, "core: decode credential environments").
			WithMetadata(map[string]any{"account_id": accountID})
	}
	return environments, nil
}

func (v *CredentialVault) recordEnvironment(ctx context.Context, accountID string, environment string) error {
	if v.index == nil {
		return nil
	}
	environments, err := v.Environments(ctx, accountID)
	if err != nil {
		return err
	}
	if slices.Contains(environments, environment) {
		return nil
	}
	environments = append(environments, environment)
	return v.writeEnvironments(ctx, accountID, environments)
}

func (v *CredentialVault) forgetEnvironment(ctx context.Context, accountID string, environment string) error {
	if v.index == nil {
		return nil
	}
	environments, err := v.Environments(ctx, accountID)
	if err != nil {
		return err
	}
	idx := slices.Index(environments, environment)
	if idx < 0 {
		return nil
	}
	return v.writeEnvironments(ctx, accountID, slices.Delete(environments, idx, idx+1))
}

func (v *CredentialVault) writeEnvironments(ctx context.Context, accountID string, environments []string) error {
	kv := v.index.Substrate()
	if kv == nil {
		return nil
	}
	key := ScopedKey(CredentialEnvironmentsKey, accountID, "")
	if len(environments) == 0 {
		if err := kv.Remove(ctx, key); err != nil {
			return NewStoreError(err, "core: clear credential environments").
				WithMetadata(map[string]any{"account_id": accountID})
		}
		return nil
	}
	raw, err := encodeNativeValue(environments)
	if err != nil {
		return NewEncodingError(err, "core: encode credential environments")
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return NewStoreError(err, "core: write credential environments").
			WithMetadata(map[string]any{"account_id": accountID})
	}
	return nil
}

func (v *CredentialVault) secureVault(accountID string) (SecureVault, error) {
	if v == nil || v.vault == nil {
		return nil, NewVaultError(nil, "core: secure vault is required")
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, NewBadInputError("core: account id is required")
	}
	return v.vault, nil
}
