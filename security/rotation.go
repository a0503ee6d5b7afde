package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-accounts/core"
)

// KeyRotationWindow gates when a key is allowed to seal new payloads.
type KeyRotationWindow struct {
	NotBefore time.Time
	NotAfter  time.Time
}

func (w KeyRotationWindow) Allows(at time.Time) bool {
	ts := at.UTC()
	if !w.NotBefore.IsZero() && ts.Before(w.NotBefore.UTC()) {
		return false
	}
	if !w.NotAfter.IsZero() && ts.After(w.NotAfter.UTC()) {
		return false
	}
	return true
}

// KeyedSecretProvider is a SecretProvider that stamps a key id on envelopes.
type KeyedSecretProvider interface {
	core.SecretProvider
	KeyID() string
}

type rotationKey struct {
	provider KeyedSecretProvider
	window   KeyRotationWindow
}

type RotationOption func(*RotatingSecretProvider)

// WithRotationKey adds a provider that may seal within window. Keys are tried
// in the order they were added.
func WithRotationKey(provider KeyedSecretProvider, window KeyRotationWindow) RotationOption {
	return func(r *RotatingSecretProvider) {
		if provider != nil {
			r.keys = append(r.keys, rotationKey{provider: provider, window: window})
		}
	}
}

// WithRetiredKey adds a provider that only opens existing payloads.
func WithRetiredKey(provider KeyedSecretProvider) RotationOption {
	return func(r *RotatingSecretProvider) {
		if provider != nil {
			r.retired = append(r.retired, provider)
		}
	}
}

func WithRotationClock(now func() time.Time) RotationOption {
	return func(r *RotatingSecretProvider) {
		if now != nil {
			r.now = now
		}
	}
}

// RotatingSecretProvider seals with the first key whose window allows the
// current time and opens payloads with whichever key id sealed them.
type RotatingSecretProvider struct {
	keys    []rotationKey
	retired []KeyedSecretProvider
	now     func() time.Time
}

func NewRotatingSecretProvider(opts ...RotationOption) (*RotatingSecretProvider, error) {
	provider := &RotatingSecretProvider{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	if len(provider.keys) == 0 {
		return nil, fmt.Errorf("security: at least one rotation key is required")
	}
	return provider, nil
}

// ActiveKeyID returns the key id that would seal a payload now.
func (r *RotatingSecretProvider) ActiveKeyID() (string, error) {
	active, err := r.active()
	if err != nil {
		return "", err
	}
	return active.KeyID(), nil
}

func (r *RotatingSecretProvider) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	active, err := r.active()
	if err != nil {
		return nil, err
	}
	return active.Encrypt(ctx, plaintext)
}

func (r *RotatingSecretProvider) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	metadata, err := ParseEnvelopeMetadata(ciphertext)
	if err != nil {
		return nil, err
	}
	candidates := r.candidates()
	for _, candidate := range candidates {
		if metadata.KeyID != "" && candidate.KeyID() == metadata.KeyID {
			return candidate.Decrypt(ctx, ciphertext)
		}
	}
	if metadata.KeyID != "" {
		return nil, fmt.Errorf("security: no key registered for key id %q", metadata.KeyID)
	}

	var errs []error
	for _, candidate := range candidates {
		plaintext, decryptErr := candidate.Decrypt(ctx, ciphertext)
		if decryptErr == nil {
			return plaintext, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", candidate.KeyID(), decryptErr))
	}
	return nil, fmt.Errorf("security: no key opened payload: %w", errors.Join(errs...))
}

func (r *RotatingSecretProvider) active() (KeyedSecretProvider, error) {
	if r == nil {
		return nil, fmt.Errorf("security: secret provider is nil")
	}
	now := r.now()
	for _, key := range r.keys {
		if key.window.Allows(now) {
			return key.provider, nil
		}
	}
	ids := make([]string, 0, len(r.keys))
	for _, key := range r.keys {
		ids = append(ids, key.provider.KeyID())
	}
	return nil, fmt.Errorf("security: no rotation key is active at %s (keys: %s)", now.Format(time.RFC3339), strings.Join(ids, ","))
}

func (r *RotatingSecretProvider) candidates() []KeyedSecretProvider {
	out := make([]KeyedSecretProvider, 0, len(r.keys)+len(r.retired))
	for _, key := range r.keys {
		out = append(out, key.provider)
	}
	return append(out, r.retired...)
}

var _ core.SecretProvider = (*RotatingSecretProvider)(nil)
