package command

import (
	"strings"

	"github.com/goliatone/go-accounts/providers/oauth1"
)

const (
	TypeNewAccount          = "accounts.command.account.new"
	TypeRemoveAccount       = "accounts.command.account.remove"
	TypeRemoveAllAccounts   = "accounts.command.account.remove_all"
	TypeSetCurrentAccount   = "accounts.command.current.set"
	TypeClearCurrentAccount = "accounts.command.current.clear"
	TypeSetEnvironment      = "accounts.command.account.environment.set"
	TypeClearCredential     = "accounts.command.credential.clear"
	TypeStoreAccessToken    = "accounts.command.credential.store_access_token"
)

// NewAccountMessage creates an account, optionally selecting its environment
// and making it current.
type NewAccountMessage struct {
	EnvironmentKey string
	MakeCurrent    bool
}

func (NewAccountMessage) Type() string { return TypeNewAccount }

func (NewAccountMessage) Validate() error { return nil }

type RemoveAccountMessage struct {
	AccountID string
}

func (RemoveAccountMessage) Type() string { return TypeRemoveAccount }

func (m RemoveAccountMessage) Validate() error {
	return requireAccountID(m.AccountID)
}

type RemoveAllAccountsMessage struct{}

func (RemoveAllAccountsMessage) Type() string { return TypeRemoveAllAccounts }

func (RemoveAllAccountsMessage) Validate() error { return nil }

type SetCurrentAccountMessage struct {
	AccountID string
}

func (SetCurrentAccountMessage) Type() string { return TypeSetCurrentAccount }

func (m SetCurrentAccountMessage) Validate() error {
	return requireAccountID(m.AccountID)
}

type ClearCurrentAccountMessage struct{}

func (ClearCurrentAccountMessage) Type() string { return TypeClearCurrentAccount }

func (ClearCurrentAccountMessage) Validate() error { return nil }

// SetEnvironmentMessage switches the environment the account's fields resolve
// under. An empty EnvironmentKey selects the default namespace.
type SetEnvironmentMessage struct {
	AccountID      string
	EnvironmentKey string
}

func (SetEnvironmentMessage) Type() string { return TypeSetEnvironment }

func (m SetEnvironmentMessage) Validate() error {
	return requireAccountID(m.AccountID)
}

type ClearCredentialMessage struct {
	AccountID string
}

func (ClearCredentialMessage) Type() string { return TypeClearCredential }

func (m ClearCredentialMessage) Validate() error {
	return requireAccountID(m.AccountID)
}

// StoreAccessTokenMessage hands a negotiated access token to the account's
// credential field and copies the identity parameters to its profile.
type StoreAccessTokenMessage struct {
	AccountID string
	Token     oauth1.AccessToken
}

func (StoreAccessTokenMessage) Type() string { return TypeStoreAccessToken }

func (m StoreAccessTokenMessage) Validate() error {
	if err := requireAccountID(m.AccountID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Token.Token) == "" {
		return commandValidationError("token", "access token is required")
	}
	return nil
}

func requireAccountID(accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return commandValidationError("account_id", "account id is required")
	}
	return nil
}
