package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-accounts/core"
)

// MutatingRegistry is the write surface of core.Registry used by commands.
type MutatingRegistry interface {
	NewAccount(ctx context.Context) (*core.Account, error)
	AccountForIdentifier(identifier string) (*core.Account, bool)
	RemoveAccountWithIdentifier(ctx context.Context, identifier string) error
	RemoveAllAccounts(ctx context.Context) error
	SetCurrentAccount(ctx context.Context, account *core.Account) error
	ClearCurrentAccount(ctx context.Context) error
	ClearAuthCredentialForAccountWithIdentifier(ctx context.Context, identifier string) error
	SetAccountEnvironment(ctx context.Context, identifier string, environment string) error
}

type NewAccountCommand struct {
	registry MutatingRegistry
}

func NewNewAccountCommand(registry MutatingRegistry) *NewAccountCommand {
	return &NewAccountCommand{registry: registry}
}

func (c *NewAccountCommand) Execute(ctx context.Context, msg NewAccountMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	account, err := c.registry.NewAccount(ctx)
	if err != nil {
		return err
	}
	if env := strings.TrimSpace(msg.EnvironmentKey); env != "" {
		if err := c.registry.SetAccountEnvironment(ctx, account.Identifier(), env); err != nil {
			return err
		}
	}
	if msg.MakeCurrent {
		if err := c.registry.SetCurrentAccount(ctx, account); err != nil {
			return err
		}
	}
	storeResult(ctx, account)
	return nil
}

type RemoveAccountCommand struct {
	registry MutatingRegistry
}

func NewRemoveAccountCommand(registry MutatingRegistry) *RemoveAccountCommand {
	return &RemoveAccountCommand{registry: registry}
}

func (c *RemoveAccountCommand) Execute(ctx context.Context, msg RemoveAccountMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	return c.registry.RemoveAccountWithIdentifier(ctx, strings.TrimSpace(msg.AccountID))
}

type RemoveAllAccountsCommand struct {
	registry MutatingRegistry
}

func NewRemoveAllAccountsCommand(registry MutatingRegistry) *RemoveAllAccountsCommand {
	return &RemoveAllAccountsCommand{registry: registry}
}

func (c *RemoveAllAccountsCommand) Execute(ctx context.Context, _ RemoveAllAccountsMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	return c.registry.RemoveAllAccounts(ctx)
}

type SetCurrentAccountCommand struct {
	registry MutatingRegistry
}

func NewSetCurrentAccountCommand(registry MutatingRegistry) *SetCurrentAccountCommand {
	return &SetCurrentAccountCommand{registry: registry}
}

func (c *SetCurrentAccountCommand) Execute(ctx context.Context, msg SetCurrentAccountMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	account, err := lookup(c.registry, msg.AccountID)
	if err != nil {
		return err
	}
	return c.registry.SetCurrentAccount(ctx, account)
}

type ClearCurrentAccountCommand struct {
	registry MutatingRegistry
}

func NewClearCurrentAccountCommand(registry MutatingRegistry) *ClearCurrentAccountCommand {
	return &ClearCurrentAccountCommand{registry: registry}
}

func (c *ClearCurrentAccountCommand) Execute(ctx context.Context, _ ClearCurrentAccountMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	return c.registry.ClearCurrentAccount(ctx)
}

type SetEnvironmentCommand struct {
	registry MutatingRegistry
}

func NewSetEnvironmentCommand(registry MutatingRegistry) *SetEnvironmentCommand {
	return &SetEnvironmentCommand{registry: registry}
}

func (c *SetEnvironmentCommand) Execute(ctx context.Context, msg SetEnvironmentMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	account, err := lookup(c.registry, msg.AccountID)
	if err != nil {
		return err
	}
	if err := c.registry.SetAccountEnvironment(ctx, account.Identifier(), strings.TrimSpace(msg.EnvironmentKey)); err != nil {
		return err
	}
	storeResult(ctx, account)
	return nil
}

type ClearCredentialCommand struct {
	registry MutatingRegistry
}

func NewClearCredentialCommand(registry MutatingRegistry) *ClearCredentialCommand {
	return &ClearCredentialCommand{registry: registry}
}

func (c *ClearCredentialCommand) Execute(ctx context.Context, msg ClearCredentialMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	return c.registry.ClearAuthCredentialForAccountWithIdentifier(ctx, strings.TrimSpace(msg.AccountID))
}

type StoreAccessTokenCommand struct {
	registry MutatingRegistry
}

func NewStoreAccessTokenCommand(registry MutatingRegistry) *StoreAccessTokenCommand {
	return &StoreAccessTokenCommand{registry: registry}
}

// Execute writes the credential blob first; profile fields are only touched
// once the vault accepted it.
func (c *StoreAccessTokenCommand) Execute(ctx context.Context, msg StoreAccessTokenMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: account registry is required")
	}
	account, err := lookup(c.registry, msg.AccountID)
	if err != nil {
		return err
	}
	if err := account.SetAuthCredential(ctx, msg.Token.Credentials().Blob()); err != nil {
		return err
	}
	if msg.Token.UserID != "" {
		if err := account.SetUserID(ctx, msg.Token.UserID); err != nil {
			return err
		}
	}
	if msg.Token.ScreenName != "" {
		if err := account.SetUsername(ctx, msg.Token.ScreenName); err != nil {
			return err
		}
	}
	storeResult(ctx, account)
	return nil
}

func lookup(registry MutatingRegistry, accountID string) (*core.Account, error) {
	accountID = strings.TrimSpace(accountID)
	account, ok := registry.AccountForIdentifier(accountID)
	if !ok || account == nil {
		return nil, commandNotFoundError(accountID)
	}
	return account, nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
