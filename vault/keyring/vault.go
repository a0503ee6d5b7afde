// Package keyring stores credential blobs in the OS keychain through
// zalando/go-keyring. Blobs are base64 encoded because keychain entries hold
// strings.
package keyring

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/goliatone/go-accounts/core"
	gokeyring "github.com/zalando/go-keyring"
)

var _ core.SecureVault = (*Vault)(nil)

// Backend is the subset of the keyring API the vault needs.
type Backend interface {
	Get(service string, account string) (string, error)
	Set(service string, account string, value string) error
	Delete(service string, account string) error
}

type systemBackend struct{}

func (systemBackend) Get(service string, account string) (string, error) {
	return gokeyring.Get(service, account)
}

func (systemBackend) Set(service string, account string, value string) error {
	return gokeyring.Set(service, account, value)
}

func (systemBackend) Delete(service string, account string) error {
	return gokeyring.Delete(service, account)
}

type Vault struct {
	backend Backend
}

// New returns a vault over the OS keychain.
func New() *Vault {
	return &Vault{backend: systemBackend{}}
}

// NewWithBackend returns a vault over a custom backend.
func NewWithBackend(backend Backend) *Vault {
	if backend == nil {
		backend = systemBackend{}
	}
	return &Vault{backend: backend}
}

func (v *Vault) Store(ctx context.Context, service string, account string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString(blob)
	if err := v.backend.Set(service, account, encoded); err != nil {
		return fmt.Errorf("keyring: store %s/%s: %w", service, account, err)
	}
	return nil
}

func (v *Vault) Retrieve(ctx context.Context, service string, account string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	encoded, err := v.backend.Get(service, account)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("keyring: retrieve %s/%s: %w", service, account, err)
	}
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, false, fmt.Errorf("keyring: decode %s/%s: %w", service, account, err)
	}
	return blob, true, nil
}

// Erase treats a missing entry as already erased.
func (v *Vault) Erase(ctx context.Context, service string, account string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := v.backend.Delete(service, account)
	if err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return fmt.Errorf("keyring: erase %s/%s: %w", service, account, err)
	}
	return nil
}
