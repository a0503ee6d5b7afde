package accounts

import (
	"context"
	"testing"

	memorystore "github.com/goliatone/go-accounts/store/memory"
	memoryvault "github.com/goliatone/go-accounts/vault/memory"
)

func TestNewRegistry_DefaultsToMemorySubstrates(t *testing.T) {
	registry, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()
	account, err := registry.NewAccount(ctx)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	if err := account.SetSerializedValue(ctx, "prefs", map[string]string{"theme": "dark"}); err != nil {
		t.Fatalf("set serialized: %v", err)
	}
	var prefs map[string]string
	found, err := account.SerializedValue(ctx, "prefs", &prefs)
	if err != nil || !found || prefs["theme"] != "dark" {
		t.Fatalf("unexpected serialized read found=%v err=%v prefs=%v", found, err, prefs)
	}
	endpoint, err := account.HTTPEndpoint(ctx)
	if err != nil {
		t.Fatalf("http endpoint: %v", err)
	}
	if endpoint != "https://api.twitter.com" {
		t.Fatalf("unexpected default endpoint %q", endpoint)
	}
}

func TestNewRegistry_CallerOptionsReplaceDefaults(t *testing.T) {
	store := memorystore.New()
	vault := memoryvault.New()
	first, err := Setup(Config{}, WithKeyValueStore(store), WithSecureVault(vault))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	ctx := context.Background()
	account, err := first.NewAccount(ctx)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	if err := account.SetAuthCredential(ctx, []byte("oauth_token=t")); err != nil {
		t.Fatalf("set credential: %v", err)
	}

	second, err := NewRegistry(Config{}, WithKeyValueStore(store), WithSecureVault(vault))
	if err != nil {
		t.Fatalf("second registry: %v", err)
	}
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	restored, ok := second.AccountForIdentifier(account.Identifier())
	if !ok {
		t.Fatalf("expected account to be restored from the shared store")
	}
	blob, ok, err := restored.AuthCredential(ctx)
	if err != nil || !ok || string(blob) != "oauth_token=t" {
		t.Fatalf("unexpected restored credential %q ok=%v err=%v", blob, ok, err)
	}
}

func TestNewRegistry_SingleModeRejectsSecondAccount(t *testing.T) {
	registry, err := NewRegistry(Config{ManagementMode: ManagementModeSingle})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()
	if _, err := registry.NewAccount(ctx); err != nil {
		t.Fatalf("first account: %v", err)
	}
	if _, err := registry.NewAccount(ctx); err == nil {
		t.Fatalf("expected second account in single mode to fail")
	}
}
