package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func accountValueHandlers() repository.ModelHandlers[*accountValueRecord] {
	return repository.ModelHandlers[*accountValueRecord]{
		NewRecord: func() *accountValueRecord {
			return &accountValueRecord{}
		},
		GetID: func(record *accountValueRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *accountValueRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "scoped_key"
		},
		GetIdentifierValue: func(record *accountValueRecord) string {
			if record == nil {
				return ""
			}
			return record.ScopedKey
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
