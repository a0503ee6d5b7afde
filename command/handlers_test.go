package command

import (
	"context"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/providers/oauth1"
	memorystore "github.com/goliatone/go-accounts/store/memory"
	memoryvault "github.com/goliatone/go-accounts/vault/memory"
)

func newTestRegistry(t *testing.T, cfg core.Config) *core.Registry[*core.Account] {
	t.Helper()
	registry, err := core.NewRegistry(cfg,
		core.WithKeyValueStore(memorystore.New()),
		core.WithSecureVault(memoryvault.New()),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return registry
}

func TestNewAccountCommand_CreatesAndStoresResult(t *testing.T) {
	registry := newTestRegistry(t, core.Config{})
	collector := gocmd.NewResult[*core.Account]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := NewNewAccountCommand(registry).Execute(ctx, NewAccountMessage{EnvironmentKey: "staging", MakeCurrent: true})
	if err != nil {
		t.Fatalf("execute new account: %v", err)
	}
	account, ok := collector.Load()
	if !ok || account == nil {
		t.Fatalf("expected account result to be stored")
	}
	if account.EnvironmentKey() != "staging" {
		t.Fatalf("expected staging environment, got %q", account.EnvironmentKey())
	}
	current, ok := registry.CurrentAccount()
	if !ok || current.Identifier() != account.Identifier() {
		t.Fatalf("expected new account to be current")
	}
}

func TestNewAccountCommand_SingleModeRejectsSecond(t *testing.T) {
	registry := newTestRegistry(t, core.Config{ManagementMode: core.ManagementModeSingle})
	cmd := NewNewAccountCommand(registry)
	if err := cmd.Execute(context.Background(), NewAccountMessage{}); err != nil {
		t.Fatalf("first account: %v", err)
	}
	err := cmd.Execute(context.Background(), NewAccountMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.AccountErrorSingleMode {
		t.Fatalf("expected single mode conflict, got %v", err)
	}
	if len(registry.Accounts()) != 1 {
		t.Fatalf("expected one account to remain, got %d", len(registry.Accounts()))
	}
}

func TestSetAndClearCurrentAccountCommands(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t, core.Config{})
	account, err := registry.NewAccount(ctx)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}

	if err := NewSetCurrentAccountCommand(registry).Execute(ctx, SetCurrentAccountMessage{AccountID: account.Identifier()}); err != nil {
		t.Fatalf("set current: %v", err)
	}
	if _, ok := registry.CurrentAccount(); !ok {
		t.Fatalf("expected current account")
	}
	if err := NewClearCurrentAccountCommand(registry).Execute(ctx, ClearCurrentAccountMessage{}); err != nil {
		t.Fatalf("clear current: %v", err)
	}
	if _, ok := registry.CurrentAccount(); ok {
		t.Fatalf("expected current account to be cleared")
	}

	err = NewSetCurrentAccountCommand(registry).Execute(ctx, SetCurrentAccountMessage{AccountID: "missing"})
	if !isCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreAccessTokenCommand_WritesCredentialAndProfile(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t, core.Config{})
	account, err := registry.NewAccount(ctx)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}

	token := oauth1.AccessToken{Token: "tok", Secret: "sec", UserID: "42", ScreenName: "joe"}
	if err := NewStoreAccessTokenCommand(registry).Execute(ctx, StoreAccessTokenMessage{
		AccountID: account.Identifier(),
		Token:     token,
	}); err != nil {
		t.Fatalf("store access token: %v", err)
	}

	blob, ok, err := account.AuthCredential(ctx)
	if err != nil || !ok {
		t.Fatalf("expected credential, got ok=%v err=%v", ok, err)
	}
	params := oauth1.ParseCredentialBlob(blob)
	if secret, _ := params.Secret(); secret != "sec" {
		t.Fatalf("expected secret in credential blob, got %v", params)
	}
	if username, _, _ := account.Username(ctx); username != "joe" {
		t.Fatalf("expected username from screen name, got %q", username)
	}
	found, ok, err := registry.AccountForUserID(ctx, "42")
	if err != nil || !ok || found.Identifier() != account.Identifier() {
		t.Fatalf("expected account to be found by user id")
	}

	if err := NewClearCredentialCommand(registry).Execute(ctx, ClearCredentialMessage{AccountID: account.Identifier()}); err != nil {
		t.Fatalf("clear credential: %v", err)
	}
	if _, ok, _ := account.AuthCredential(ctx); ok {
		t.Fatalf("expected credential to be cleared")
	}
}

func TestSetEnvironmentCommand_SwitchesNamespace(t *testing.T) {
	ctx := context.Background()
	store := memorystore.New()
	vault := memoryvault.New()
	registry, err := core.NewRegistry(core.Config{}, core.WithKeyValueStore(store), core.WithSecureVault(vault))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	account, _ := registry.NewAccount(ctx)
	if err := account.SetEmail(ctx, "prod@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}

	if err := NewSetEnvironmentCommand(registry).Execute(ctx, SetEnvironmentMessage{
		AccountID:      account.Identifier(),
		EnvironmentKey: "staging",
	}); err != nil {
		t.Fatalf("set environment: %v", err)
	}
	if _, ok, _ := account.Email(ctx); ok {
		t.Fatalf("expected staging namespace to be empty")
	}

	restored, err := core.NewRegistry(core.Config{}, core.WithKeyValueStore(store), core.WithSecureVault(vault))
	if err != nil {
		t.Fatalf("second registry: %v", err)
	}
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, ok := restored.AccountForIdentifier(account.Identifier())
	if !ok || got.EnvironmentKey() != "staging" {
		t.Fatalf("expected environment to survive restore, got ok=%v env=%q", ok, got.EnvironmentKey())
	}
}

func TestRemoveCommands(t *testing.T) {
	ctx := context.Background()
	registry := newTestRegistry(t, core.Config{})
	first, _ := registry.NewAccount(ctx)
	_, _ = registry.NewAccount(ctx)
	_, _ = registry.NewAccount(ctx)

	if err := NewRemoveAccountCommand(registry).Execute(ctx, RemoveAccountMessage{AccountID: first.Identifier()}); err != nil {
		t.Fatalf("remove account: %v", err)
	}
	if _, ok := registry.AccountForIdentifier(first.Identifier()); ok {
		t.Fatalf("expected account to be removed")
	}
	if err := NewRemoveAllAccountsCommand(registry).Execute(ctx, RemoveAllAccountsMessage{}); err != nil {
		t.Fatalf("remove all: %v", err)
	}
	if len(registry.Accounts()) != 0 {
		t.Fatalf("expected no accounts, got %d", len(registry.Accounts()))
	}
}

func TestMessageValidation(t *testing.T) {
	cases := []interface{ Validate() error }{
		RemoveAccountMessage{},
		SetCurrentAccountMessage{AccountID: " "},
		SetEnvironmentMessage{},
		ClearCredentialMessage{},
		StoreAccessTokenMessage{AccountID: "a"},
	}
	for _, msg := range cases {
		err := msg.Validate()
		if !isCategory(err, goerrors.CategoryValidation) {
			t.Fatalf("%T: expected validation error, got %v", msg, err)
		}
	}
	if err := (NewAccountMessage{}).Validate(); err != nil {
		t.Fatalf("expected new account message to be valid: %v", err)
	}
}

func TestCommands_NilRegistryReturnsRichError(t *testing.T) {
	var cmd *RemoveAccountCommand
	err := cmd.Execute(context.Background(), RemoveAccountMessage{AccountID: "a"})
	if !isCategory(err, goerrors.CategoryInternal) {
		t.Fatalf("expected internal dependency error, got %v", err)
	}
}

func isCategory(err error, category goerrors.Category) bool {
	var rich *goerrors.Error
	return goerrors.As(err, &rich) && rich.Category == category
}
