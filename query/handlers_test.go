package query

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-accounts/core"
	memorystore "github.com/goliatone/go-accounts/store/memory"
	memoryvault "github.com/goliatone/go-accounts/vault/memory"
)

func newSeededRegistry(t *testing.T) (*core.Registry[*core.Account], *core.Account, *core.Account) {
	t.Helper()
	ctx := context.Background()
	registry, err := core.NewRegistry(core.Config{},
		core.WithKeyValueStore(memorystore.New()),
		core.WithSecureVault(memoryvault.New()),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	first, err := registry.NewAccount(ctx)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	second, err := registry.NewAccount(ctx)
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	if err := first.SetUserID(ctx, "1001"); err != nil {
		t.Fatalf("set user id: %v", err)
	}
	if err := first.SetUsername(ctx, "ada"); err != nil {
		t.Fatalf("set username: %v", err)
	}
	if err := first.SetAuthCredential(ctx, []byte("oauth_token=t")); err != nil {
		t.Fatalf("set credential: %v", err)
	}
	if err := registry.SetCurrentAccount(ctx, first); err != nil {
		t.Fatalf("set current: %v", err)
	}
	return registry, first, second
}

func TestGetAccountQuery_ByIdentifierAndUserID(t *testing.T) {
	registry, first, _ := newSeededRegistry(t)
	query := NewGetAccountQuery(registry)

	byID, err := query.Query(context.Background(), GetAccountMessage{AccountID: first.Identifier()})
	if err != nil {
		t.Fatalf("query by id: %v", err)
	}
	if byID.Username != "ada" || !byID.HasCredential || !byID.Current {
		t.Fatalf("unexpected summary %+v", byID)
	}
	if byID.HTTPEndpoint == "" {
		t.Fatalf("expected default endpoint to be resolved")
	}

	byUser, err := query.Query(context.Background(), GetAccountMessage{UserID: "1001"})
	if err != nil {
		t.Fatalf("query by user id: %v", err)
	}
	if byUser.Identifier != first.Identifier() {
		t.Fatalf("expected %q, got %q", first.Identifier(), byUser.Identifier)
	}
}

func TestGetAccountQuery_MissingIsNotFound(t *testing.T) {
	registry, _, _ := newSeededRegistry(t)
	_, err := NewGetAccountQuery(registry).Query(context.Background(), GetAccountMessage{AccountID: "missing"})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.AccountErrorNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAccountsQuery_ReturnsAllAccounts(t *testing.T) {
	registry, first, second := newSeededRegistry(t)
	summaries, err := NewListAccountsQuery(registry).Query(context.Background(), ListAccountsMessage{IncludeCredentialState: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	byID := map[string]AccountSummary{}
	for _, summary := range summaries {
		byID[summary.Identifier] = summary
	}
	if !byID[first.Identifier()].HasCredential || byID[second.Identifier()].HasCredential {
		t.Fatalf("unexpected credential state %+v", byID)
	}
	if byID[second.Identifier()].Current {
		t.Fatalf("expected only the first account to be current")
	}
}

func TestCurrentAccountQuery(t *testing.T) {
	registry, first, _ := newSeededRegistry(t)
	summary, err := NewCurrentAccountQuery(registry).Query(context.Background(), CurrentAccountMessage{})
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if summary.Identifier != first.Identifier() {
		t.Fatalf("expected current account %q, got %q", first.Identifier(), summary.Identifier)
	}

	if err := registry.ClearCurrentAccount(context.Background()); err != nil {
		t.Fatalf("clear current: %v", err)
	}
	_, err = NewCurrentAccountQuery(registry).Query(context.Background(), CurrentAccountMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryNotFound {
		t.Fatalf("expected not found without a current account, got %v", err)
	}
}

func TestGetAccountMessage_ValidateReturnsRichError(t *testing.T) {
	err := (GetAccountMessage{}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.AccountErrorBadInput {
		t.Fatalf("unexpected envelope %q/%q", rich.Category, rich.TextCode)
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var query *ListAccountsQuery
	_, err := query.Query(context.Background(), ListAccountsMessage{})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal dependency error, got %v", err)
	}
}
