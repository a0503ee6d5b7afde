package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocmd "github.com/goliatone/go-command"

	accountscommand "github.com/goliatone/go-accounts/command"
	"github.com/goliatone/go-accounts/core"
	"github.com/goliatone/go-accounts/providers/oauth1"
	accountsquery "github.com/goliatone/go-accounts/query"
)

type Commands struct {
	NewAccount          *accountscommand.NewAccountCommand
	RemoveAccount       *accountscommand.RemoveAccountCommand
	RemoveAllAccounts   *accountscommand.RemoveAllAccountsCommand
	SetCurrentAccount   *accountscommand.SetCurrentAccountCommand
	ClearCurrentAccount *accountscommand.ClearCurrentAccountCommand
	SetEnvironment      *accountscommand.SetEnvironmentCommand
	ClearCredential     *accountscommand.ClearCredentialCommand
	StoreAccessToken    *accountscommand.StoreAccessTokenCommand
}

type Queries struct {
	GetAccount     *accountsquery.GetAccountQuery
	ListAccounts   *accountsquery.ListAccountsQuery
	CurrentAccount *accountsquery.CurrentAccountQuery
}

// Facade bundles a registry with its command and query handlers and an
// optional negotiator used to sign accounts in.
type Facade struct {
	registry   *Registry
	negotiator *oauth1.Negotiator
	commands   Commands
	queries    Queries
}

func NewFacade(registry *Registry, negotiator *oauth1.Negotiator) (*Facade, error) {
	if registry == nil {
		return nil, fmt.Errorf("accounts: registry is required")
	}
	return &Facade{
		registry:   registry,
		negotiator: negotiator,
		commands: Commands{
			NewAccount:          accountscommand.NewNewAccountCommand(registry),
			RemoveAccount:       accountscommand.NewRemoveAccountCommand(registry),
			RemoveAllAccounts:   accountscommand.NewRemoveAllAccountsCommand(registry),
			SetCurrentAccount:   accountscommand.NewSetCurrentAccountCommand(registry),
			ClearCurrentAccount: accountscommand.NewClearCurrentAccountCommand(registry),
			SetEnvironment:      accountscommand.NewSetEnvironmentCommand(registry),
			ClearCredential:     accountscommand.NewClearCredentialCommand(registry),
			StoreAccessToken:    accountscommand.NewStoreAccessTokenCommand(registry),
		},
		queries: Queries{
			GetAccount:     accountsquery.NewGetAccountQuery(registry),
			ListAccounts:   accountsquery.NewListAccountsQuery(registry),
			CurrentAccount: accountsquery.NewCurrentAccountQuery(registry),
		},
	}, nil
}

func (f *Facade) Registry() *Registry {
	if f == nil {
		return nil
	}
	return f.registry
}

func (f *Facade) Negotiator() *oauth1.Negotiator {
	if f == nil {
		return nil
	}
	return f.negotiator
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

// BeginSignIn starts a three-legged negotiation and returns it with the URL
// the user must visit.
func (f *Facade) BeginSignIn(ctx context.Context, consumer oauth1.Consumer, callbackURL string) (*oauth1.Negotiation, string, error) {
	if f == nil || f.negotiator == nil {
		return nil, "", core.NewBadInputError("accounts: negotiator is not configured")
	}
	negotiation := f.negotiator.Begin(consumer)
	authorizeURL, err := negotiation.Start(ctx, callbackURL)
	if err != nil {
		return nil, "", err
	}
	return negotiation, authorizeURL, nil
}

// CompleteSignIn exchanges verifier for an access token and stores it on the
// account named by accountID. With an empty accountID a new account is
// created and made current. A failed exchange leaves the registry untouched.
func (f *Facade) CompleteSignIn(ctx context.Context, negotiation *oauth1.Negotiation, verifier string, accountID string) (*Account, error) {
	if f == nil || f.registry == nil {
		return nil, fmt.Errorf("accounts: facade is not initialized")
	}
	if negotiation == nil {
		return nil, core.NewBadInputError("accounts: negotiation is required")
	}
	token, err := negotiation.Complete(ctx, verifier)
	if err != nil {
		return nil, err
	}
	return f.StoreAccessToken(ctx, token, accountID)
}

// StoreAccessToken attaches token to an existing account or, when accountID
// is empty, to a new account that becomes current only once the token is
// stored. A new account whose token could not be stored is removed again.
func (f *Facade) StoreAccessToken(ctx context.Context, token oauth1.AccessToken, accountID string) (*Account, error) {
	if f == nil || f.registry == nil {
		return nil, fmt.Errorf("accounts: facade is not initialized")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID != "" {
		return f.storeAccessToken(ctx, token, accountID)
	}

	created, err := f.newAccount(ctx)
	if err != nil {
		return nil, err
	}
	account, err := f.storeAccessToken(ctx, token, created.Identifier())
	if err != nil {
		if removeErr := f.registry.RemoveAccountWithIdentifier(ctx, created.Identifier()); removeErr != nil {
			return nil, errors.Join(err, removeErr)
		}
		return nil, err
	}
	if err := f.commands.SetCurrentAccount.Execute(ctx, accountscommand.SetCurrentAccountMessage{AccountID: account.Identifier()}); err != nil {
		return nil, err
	}
	return account, nil
}

func (f *Facade) storeAccessToken(ctx context.Context, token oauth1.AccessToken, accountID string) (*Account, error) {
	result := gocmd.NewResult[*Account]()
	if err := f.commands.StoreAccessToken.Execute(gocmd.ContextWithResult(ctx, result), accountscommand.StoreAccessTokenMessage{
		AccountID: accountID,
		Token:     token,
	}); err != nil {
		return nil, err
	}
	account, ok := result.Load()
	if !ok || account == nil {
		return nil, fmt.Errorf("accounts: store access token result missing")
	}
	return account, nil
}

func (f *Facade) newAccount(ctx context.Context) (*Account, error) {
	result := gocmd.NewResult[*Account]()
	if err := f.commands.NewAccount.Execute(gocmd.ContextWithResult(ctx, result), accountscommand.NewAccountMessage{}); err != nil {
		return nil, err
	}
	account, ok := result.Load()
	if !ok || account == nil {
		return nil, fmt.Errorf("accounts: new account result missing")
	}
	return account, nil
}
