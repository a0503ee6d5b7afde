package command

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-accounts/core"
)

var (
	_ MutatingRegistry = (*core.Registry[*core.Account])(nil)

	_ gocmd.Commander[NewAccountMessage]          = (*NewAccountCommand)(nil)
	_ gocmd.Commander[RemoveAccountMessage]       = (*RemoveAccountCommand)(nil)
	_ gocmd.Commander[RemoveAllAccountsMessage]   = (*RemoveAllAccountsCommand)(nil)
	_ gocmd.Commander[SetCurrentAccountMessage]   = (*SetCurrentAccountCommand)(nil)
	_ gocmd.Commander[ClearCurrentAccountMessage] = (*ClearCurrentAccountCommand)(nil)
	_ gocmd.Commander[SetEnvironmentMessage]      = (*SetEnvironmentCommand)(nil)
	_ gocmd.Commander[ClearCredentialMessage]     = (*ClearCredentialCommand)(nil)
	_ gocmd.Commander[StoreAccessTokenMessage]    = (*StoreAccessTokenCommand)(nil)
)
