package sqlstore

import "github.com/goliatone/go-accounts/core"

var _ core.KeyValueStore = (*ValueStore)(nil)
