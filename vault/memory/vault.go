// Package memory provides an in-process secure vault for tests and
// ephemeral applications. Nothing is encrypted or persisted.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-accounts/core"
)

var _ core.SecureVault = (*Vault)(nil)

type entryKey struct {
	service string
	account string
}

type Vault struct {
	mu      sync.RWMutex
	entries map[entryKey][]byte
}

func New() *Vault {
	return &Vault{entries: map[entryKey][]byte{}}
}

func (v *Vault) Store(_ context.Context, service string, account string, blob []byte) error {
	if service == "" || account == "" {
		return fmt.Errorf("memory vault: service and account are required")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.entries == nil {
		v.entries = map[entryKey][]byte{}
	}
	v.entries[entryKey{service: service, account: account}] = append([]byte{}, blob...)
	return nil
}

func (v *Vault) Retrieve(_ context.Context, service string, account string) ([]byte, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	blob, ok := v.entries[entryKey{service: service, account: account}]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, blob...), true, nil
}

func (v *Vault) Erase(_ context.Context, service string, account string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.entries, entryKey{service: service, account: account})
	return nil
}

// Len reports the number of stored entries across services.
func (v *Vault) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}
