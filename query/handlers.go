package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-accounts/core"
)

type AccountReader interface {
	Accounts() []*core.Account
	AccountForIdentifier(identifier string) (*core.Account, bool)
	AccountForUserID(ctx context.Context, userID string) (*core.Account, bool, error)
	CurrentAccount() (*core.Account, bool)
}

// AccountSummary is a read snapshot of an account under its current
// environment. Credential bytes are never copied; only their presence.
type AccountSummary struct {
	Identifier     string `json:"identifier"`
	EnvironmentKey string `json:"environment_key,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	Username       string `json:"username,omitempty"`
	Email          string `json:"email,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	HTTPEndpoint   string `json:"http_endpoint,omitempty"`
	APIVersion     string `json:"api_version,omitempty"`
	HasCredential  bool   `json:"has_credential"`
	Current        bool   `json:"current"`
}

type GetAccountQuery struct {
	reader AccountReader
}

func NewGetAccountQuery(reader AccountReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (AccountSummary, error) {
	if q == nil || q.reader == nil {
		return AccountSummary{}, queryDependencyError("query: account reader is required")
	}
	var (
		account *core.Account
		found   bool
		err     error
	)
	if id := strings.TrimSpace(msg.AccountID); id != "" {
		account, found = q.reader.AccountForIdentifier(id)
	} else {
		account, found, err = q.reader.AccountForUserID(ctx, strings.TrimSpace(msg.UserID))
		if err != nil {
			return AccountSummary{}, err
		}
	}
	if !found || account == nil {
		return AccountSummary{}, core.NewNotFoundError("query: account not found").
			WithMetadata(map[string]any{"account_id": msg.AccountID, "user_id": msg.UserID})
	}
	return summarize(ctx, q.reader, account, true)
}

type ListAccountsQuery struct {
	reader AccountReader
}

func NewListAccountsQuery(reader AccountReader) *ListAccountsQuery {
	return &ListAccountsQuery{reader: reader}
}

func (q *ListAccountsQuery) Query(ctx context.Context, msg ListAccountsMessage) ([]AccountSummary, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: account reader is required")
	}
	accounts := q.reader.Accounts()
	out := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summary, err := summarize(ctx, q.reader, account, msg.IncludeCredentialState)
		if err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, nil
}

type CurrentAccountQuery struct {
	reader AccountReader
}

func NewCurrentAccountQuery(reader AccountReader) *CurrentAccountQuery {
	return &CurrentAccountQuery{reader: reader}
}

func (q *CurrentAccountQuery) Query(ctx context.Context, _ CurrentAccountMessage) (AccountSummary, error) {
	if q == nil || q.reader == nil {
		return AccountSummary{}, queryDependencyError("query: account reader is required")
	}
	account, ok := q.reader.CurrentAccount()
	if !ok || account == nil {
		return AccountSummary{}, core.NewNotFoundError("query: no current account")
	}
	return summarize(ctx, q.reader, account, true)
}

func summarize(ctx context.Context, reader AccountReader, account *core.Account, withCredential bool) (AccountSummary, error) {
	summary := AccountSummary{
		Identifier:     account.Identifier(),
		EnvironmentKey: account.EnvironmentKey(),
	}
	fields := []struct {
		target *string
		read   func(context.Context) (string, bool, error)
	}{
		{&summary.UserID, account.UserID},
		{&summary.Username, account.Username},
		{&summary.Email, account.Email},
		{&summary.FullName, account.FullName},
	}
	for _, field := range fields {
		value, _, err := field.read(ctx)
		if err != nil {
			return AccountSummary{}, err
		}
		*field.target = value
	}

	var err error
	if summary.HTTPEndpoint, err = account.HTTPEndpoint(ctx); err != nil {
		return AccountSummary{}, err
	}
	if summary.APIVersion, err = account.APIVersion(ctx); err != nil {
		return AccountSummary{}, err
	}
	if withCredential {
		_, ok, err := account.AuthCredential(ctx)
		if err != nil {
			return AccountSummary{}, err
		}
		summary.HasCredential = ok
	}
	if current, ok := reader.CurrentAccount(); ok && current != nil {
		summary.Current = current.Identifier() == account.Identifier()
	}
	return summary, nil
}
