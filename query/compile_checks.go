package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-accounts/core"
)

var (
	_ AccountReader = (*core.Registry[*core.Account])(nil)

	_ gocmd.Querier[GetAccountMessage, AccountSummary]     = (*GetAccountQuery)(nil)
	_ gocmd.Querier[ListAccountsMessage, []AccountSummary] = (*ListAccountsQuery)(nil)
	_ gocmd.Querier[CurrentAccountMessage, AccountSummary] = (*CurrentAccountQuery)(nil)
)
