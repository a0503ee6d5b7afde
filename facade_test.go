package accounts

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/providers/oauth1"
	accountsquery "github.com/goliatone/go-accounts/query"
	memoryvault "github.com/goliatone/go-accounts/vault/memory"
)

type rejectingVault struct {
	*memoryvault.Vault
}

func (rejectingVault) Store(context.Context, string, string, []byte) error {
	return errors.New("keychain locked")
}

func newPlatformServer(t *testing.T, accessStatus int, accessBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "oauth_token=req-token&oauth_token_secret=req-secret&oauth_callback_confirmed=true")
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(accessStatus)
		_, _ = io.WriteString(w, accessBody)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestFacade(t *testing.T, server *httptest.Server) *Facade {
	t.Helper()
	registry, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	hooks := NewExtensionHooks()
	if err := hooks.RegisterPlatformPack(PlatformPack{
		Name: "local",
		Endpoints: oauth1.Endpoints{
			RequestTokenURL: server.URL + "/oauth/request_token",
			AuthorizeURL:    server.URL + "/oauth/authorize",
			AccessTokenURL:  server.URL + "/oauth/access_token",
		},
	}); err != nil {
		t.Fatalf("register platform pack: %v", err)
	}
	negotiator, err := NegotiatorFor(hooks, "local", oauth1.Config{HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("negotiator: %v", err)
	}
	facade, err := NewFacade(registry, negotiator)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	return facade
}

func TestNewFacade_RequiresRegistry(t *testing.T) {
	if _, err := NewFacade(nil, nil); err == nil {
		t.Fatalf("expected nil registry to fail")
	}
}

func TestFacade_SignInStoresCredentialOnNewCurrentAccount(t *testing.T) {
	server := newPlatformServer(t, http.StatusOK, "oauth_token=acc-token&oauth_token_secret=acc-secret&user_id=42&screen_name=gopher")
	facade := newTestFacade(t, server)
	ctx := context.Background()

	negotiation, authorizeURL, err := facade.BeginSignIn(ctx, oauth1.Consumer{Key: "key", Secret: "secret"}, "https://app.example/callback")
	if err != nil {
		t.Fatalf("begin sign in: %v", err)
	}
	if authorizeURL != server.URL+"/oauth/authorize?oauth_token=req-token" {
		t.Fatalf("unexpected authorize url %q", authorizeURL)
	}

	account, err := facade.CompleteSignIn(ctx, negotiation, "verifier", "")
	if err != nil {
		t.Fatalf("complete sign in: %v", err)
	}
	current, ok := facade.Registry().CurrentAccount()
	if !ok || current.Identifier() != account.Identifier() {
		t.Fatalf("expected signed in account to be current")
	}

	blob, ok, err := account.AuthCredential(ctx)
	if err != nil || !ok {
		t.Fatalf("expected stored credential, ok=%v err=%v", ok, err)
	}
	credentials := oauth1.ParseCredentialBlob(blob)
	if token, _ := credentials.Token(); token != "acc-token" {
		t.Fatalf("unexpected stored token %q", token)
	}

	summary, err := facade.Queries().CurrentAccount.Query(ctx, accountsquery.CurrentAccountMessage{})
	if err != nil {
		t.Fatalf("query current: %v", err)
	}
	if summary.UserID != "42" || summary.Username != "gopher" || !summary.HasCredential {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestFacade_FailedExchangeLeavesRegistryUntouched(t *testing.T) {
	server := newPlatformServer(t, http.StatusUnauthorized, `{"errors":[{"message":"Invalid verifier"}]}`)
	facade := newTestFacade(t, server)
	ctx := context.Background()

	negotiation, _, err := facade.BeginSignIn(ctx, oauth1.Consumer{Key: "key", Secret: "secret"}, "")
	if err != nil {
		t.Fatalf("begin sign in: %v", err)
	}
	if _, err := facade.CompleteSignIn(ctx, negotiation, "bad", ""); !core.IsNegotiationFailure(err) {
		t.Fatalf("expected negotiation failure, got %v", err)
	}
	if negotiation.State() != oauth1.StateFailed {
		t.Fatalf("expected failed negotiation, got %s", negotiation.State())
	}
	if got := len(facade.Registry().Accounts()); got != 0 {
		t.Fatalf("expected no accounts after failed exchange, got %d", got)
	}
}

func TestFacade_StoreAccessTokenOnExistingAccount(t *testing.T) {
	registry, err := NewRegistry(Config{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	facade, err := NewFacade(registry, nil)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()
	existing, err := registry.NewAccount(ctx)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}

	account, err := facade.StoreAccessToken(ctx, oauth1.AccessToken{Token: "t", Secret: "s", UserID: "7"}, existing.Identifier())
	if err != nil {
		t.Fatalf("store access token: %v", err)
	}
	if account.Identifier() != existing.Identifier() {
		t.Fatalf("expected token stored on existing account")
	}
	if userID, _, _ := account.UserID(ctx); userID != "7" {
		t.Fatalf("unexpected user id %q", userID)
	}
	if _, ok := registry.CurrentAccount(); ok {
		t.Fatalf("storing on an existing account must not change current")
	}

	if _, _, err := facade.BeginSignIn(ctx, oauth1.Consumer{Key: "k", Secret: "s"}, ""); err == nil {
		t.Fatalf("expected begin sign in without negotiator to fail")
	}
}

func TestFacade_StoreAccessTokenFailureRemovesNewAccount(t *testing.T) {
	registry, err := NewRegistry(Config{}, WithSecureVault(rejectingVault{Vault: memoryvault.New()}))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	facade, err := NewFacade(registry, nil)
	if err != nil {
		t.Fatalf("new facade: %v", err)
	}
	ctx := context.Background()

	var changes int
	registry.Notifications().Subscribe(core.WillChangeCurrentAccount, func(context.Context, Notification) { changes++ })

	_, err = facade.StoreAccessToken(ctx, oauth1.AccessToken{Token: "t", Secret: "s"}, "")
	if !core.IsVaultFailure(err) {
		t.Fatalf("expected vault failure, got %v", err)
	}
	if got := len(registry.Accounts()); got != 0 {
		t.Fatalf("expected the new account to be removed, got %d accounts", got)
	}
	if _, ok := registry.CurrentAccount(); ok {
		t.Fatalf("expected no current account after failed store")
	}
	if changes != 0 {
		t.Fatalf("expected no current account change, got %d", changes)
	}
}
