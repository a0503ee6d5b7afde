package sqlstore

import (
	"context"
	"fmt"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ValueStore is a core.KeyValueStore over the account_values table.
type ValueStore struct {
	db     *bun.DB
	repo   repository.Repository[*accountValueRecord]
	closer func() error
	now    func() time.Time
}

func NewValueStore(db *bun.DB) (*ValueStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*accountValueRecord](db, accountValueHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid account value repository wiring: %w", err)
		}
	}
	return &ValueStore{
		db:   db,
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// NewValueStoreFromPersistence accepts a *bun.DB or a persistence client
// exposing DB() *bun.DB.
func NewValueStoreFromPersistence(client any) (*ValueStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewValueStore(db)
}

func (s *ValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.repo == nil {
		return nil, false, fmt.Errorf("sqlstore: value store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("scoped_key", "=", key),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, false, fmt.Errorf("sqlstore: get %q: %w", key, err)
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return append([]byte{}, records[0].Value...), true, nil
}

func (s *ValueStore) Set(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: value store is not configured")
	}
	if key == "" {
		return fmt.Errorf("sqlstore: key is required")
	}
	record := newAccountValueRecord(key, value, s.now())
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (scoped_key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: set %q: %w", key, err)
	}
	return nil
}

func (s *ValueStore) Remove(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: value store is not configured")
	}
	_, err := s.db.NewDelete().
		Model((*accountValueRecord)(nil)).
		Where("scoped_key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("sqlstore: remove %q: %w", key, err)
	}
	return nil
}

func (s *ValueStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: value store is not configured")
	}
	keys := []string{}
	query := s.db.NewSelect().
		Model((*accountValueRecord)(nil)).
		Column("scoped_key").
		Order("scoped_key ASC")
	if prefix != "" {
		// substr keeps % and _ inside escaped segments literal.
		query = query.Where("substr(scoped_key, 1, ?) = ?", len(prefix), prefix)
	}
	if err := query.Scan(ctx, &keys); err != nil {
		return nil, fmt.Errorf("sqlstore: list keys: %w", err)
	}
	return keys, nil
}

// CountForAccount reports how many rows belong to accountID.
func (s *ValueStore) CountForAccount(ctx context.Context, accountID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: value store is not configured")
	}
	return s.db.NewSelect().
		Model((*accountValueRecord)(nil)).
		Where("account_id = ?", accountID).
		Count(ctx)
}

func (s *ValueStore) DB() *bun.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Close releases the underlying client when the store was opened by Open.
func (s *ValueStore) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer()
}
