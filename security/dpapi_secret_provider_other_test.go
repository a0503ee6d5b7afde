//go:build !windows

package security

import (
	"context"
	"testing"
)

func TestDPAPISecretProvider_UnsupportedOffWindows(t *testing.T) {
	provider := NewDPAPISecretProvider()
	if DPAPIAvailable() {
		t.Fatalf("expected dpapi to be unavailable")
	}
	if _, err := provider.Encrypt(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected encrypt to fail off windows")
	}
	if provider.KeyID() != "dpapi-user" {
		t.Fatalf("unexpected key id %q", provider.KeyID())
	}
}
