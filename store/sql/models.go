package sqlstore

import (
	"time"

	"github.com/goliatone/go-accounts/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type accountValueRecord struct {
	bun.BaseModel `bun:"table:account_values,alias:av"`

	ID          string    `bun:"id,pk"`
	ScopedKey   string    `bun:"scoped_key,notnull"`
	AccountID   string    `bun:"account_id,notnull"`
	Environment string    `bun:"environment,notnull"`
	Value       []byte    `bun:"value,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// newAccountValueRecord denormalizes the account and environment segments of
// scoped keys so rows can be inspected per account. Registry keys leave both
// columns empty.
func newAccountValueRecord(key string, value []byte, now time.Time) *accountValueRecord {
	record := &accountValueRecord{
		ID:        uuid.NewString(),
		ScopedKey: key,
		Value:     append([]byte{}, value...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if parts, ok := core.ParseScopedKey(key); ok {
		record.AccountID = parts.AccountID
		record.Environment = parts.Environment
	}
	return record
}
