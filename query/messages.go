package query

import "strings"

const (
	TypeGetAccount     = "accounts.query.account.get"
	TypeListAccounts   = "accounts.query.account.list"
	TypeCurrentAccount = "accounts.query.current.get"
)

// GetAccountMessage selects an account by identifier or, when AccountID is
// empty, by platform user id.
type GetAccountMessage struct {
	AccountID string
	UserID    string
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	if strings.TrimSpace(m.AccountID) == "" && strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("account_id", "account id or user id is required")
	}
	return nil
}

type ListAccountsMessage struct {
	IncludeCredentialState bool
}

func (ListAccountsMessage) Type() string { return TypeListAccounts }

func (ListAccountsMessage) Validate() error { return nil }

type CurrentAccountMessage struct{}

func (CurrentAccountMessage) Type() string { return TypeCurrentAccount }

func (CurrentAccountMessage) Validate() error { return nil }
