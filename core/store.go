package core

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// NamespacedStore layers account and environment scoping, typed accessors and
// change observers on top of a flat KeyValueStore.
//
// A NamespacedStore is not safe for concurrent mutation from several
// goroutines; callers that share one must synchronize externally.
type NamespacedStore struct {
	kv        KeyValueStore
	codec     ValueCodec
	observers *observerRegistry
}

func NewNamespacedStore(kv KeyValueStore, codec ValueCodec) *NamespacedStore {
	return &NamespacedStore{
		kv:        kv,
		codec:     codec,
		observers: newObserverRegistry(),
	}
}

// Substrate exposes the underlying key-value store.
func (s *NamespacedStore) Substrate() KeyValueStore {
	if s == nil {
		return nil
	}
	return s.kv
}

// Value is the single typed read path. Absent keys and stored values whose
// shape does not fit T report ok=false with a zero T.
func Value[T any](ctx context.Context, s *NamespacedStore, baseKey string, accountID string, environment string) (T, bool, error) {
	var zero T
	raw, ok, err := s.raw(ctx, baseKey, accountID, environment)
	if err != nil || !ok {
		return zero, false, err
	}
	var out T
	mismatch, err := decodeNativeValue(raw, &out)
	if err != nil {
		return zero, false, NewEncodingError(err, "core: decode stored value").
			WithMetadata(map[string]any{"base_key": baseKey, "account_id": accountID})
	}
	if mismatch {
		return zero, false, nil
	}
	return out, true, nil
}

// SetValue writes value under the scoped key. Nil maps, slices, pointers and
// interfaces clear the slot.
func SetValue[T any](ctx context.Context, s *NamespacedStore, value T, baseKey string, accountID string, environment string) error {
	if isNilValue(value) {
		return s.Remove(ctx, baseKey, accountID, environment)
	}
	if err := validateScope(baseKey, accountID); err != nil {
		return err
	}
	raw, err := encodeNativeValue(value)
	if err != nil {
		return NewEncodingError(err, "core: encode value").
			WithMetadata(map[string]any{"base_key": baseKey, "account_id": accountID})
	}
	return s.write(ctx, raw, baseKey, accountID, environment)
}

func (s *NamespacedStore) Object(ctx context.Context, baseKey string, accountID string, environment string) (any, bool, error) {
	return Value[any](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetObject(ctx context.Context, value any, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

func (s *NamespacedStore) String(ctx context.Context, baseKey string, accountID string, environment string) (string, bool, error) {
	return Value[string](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetString(ctx context.Context, value string, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

// Bool returns false when the key is absent.
func (s *NamespacedStore) Bool(ctx context.Context, baseKey string, accountID string, environment string) (bool, error) {
	value, _, err := Value[bool](ctx, s, baseKey, accountID, environment)
	return value, err
}

func (s *NamespacedStore) SetBool(ctx context.Context, value bool, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

func (s *NamespacedStore) Integer(ctx context.Context, baseKey string, accountID string, environment string) (int64, bool, error) {
	return Value[int64](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetInteger(ctx context.Context, value int64, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

func (s *NamespacedStore) Float(ctx context.Context, baseKey string, accountID string, environment string) (float32, bool, error) {
	return Value[float32](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetFloat(ctx context.Context, value float32, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

func (s *NamespacedStore) Double(ctx context.Context, baseKey string, accountID string, environment string) (float64, bool, error) {
	return Value[float64](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetDouble(ctx context.Context, value float64, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

// Number reads any stored integer or float as float64.
func (s *NamespacedStore) Number(ctx context.Context, baseKey string, accountID string, environment string) (float64, bool, error) {
	return Value[float64](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) Map(ctx context.Context, baseKey string, accountID string, environment string) (map[string]any, bool, error) {
	return Value[map[string]any](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetMap(ctx context.Context, value map[string]any, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

func (s *NamespacedStore) Array(ctx context.Context, baseKey string, accountID string, environment string) ([]any, bool, error) {
	return Value[[]any](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetArray(ctx context.Context, value []any, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

func (s *NamespacedStore) Data(ctx context.Context, baseKey string, accountID string, environment string) ([]byte, bool, error) {
	return Value[[]byte](ctx, s, baseKey, accountID, environment)
}

func (s *NamespacedStore) SetData(ctx context.Context, value []byte, baseKey string, accountID string, environment string) error {
	return SetValue(ctx, s, value, baseKey, accountID, environment)
}

// Serialized decodes the stored blob into out through the injected codec.
func (s *NamespacedStore) Serialized(ctx context.Context, out any, baseKey string, accountID string, environment string) (bool, error) {
	codec, err := s.valueCodec()
	if err != nil {
		return false, err
	}
	raw, ok, err := s.raw(ctx, baseKey, accountID, environment)
	if err != nil || !ok {
		return false, err
	}
	if err := codec.Decode(raw, out); err != nil {
		return false, NewEncodingError(err, "core: decode serialized value").
			WithMetadata(map[string]any{"base_key": baseKey, "account_id": accountID, "format": codec.Format()})
	}
	return true, nil
}

// SetSerialized encodes value through the injected codec. An encode failure
// leaves the stored slot unchanged.
func (s *NamespacedStore) SetSerialized(ctx context.Context, value any, baseKey string, accountID string, environment string) error {
	if isNilValue(value) {
		return s.Remove(ctx, baseKey, accountID, environment)
	}
	if err := validateScope(baseKey, accountID); err != nil {
		return err
	}
	codec, err := s.valueCodec()
	if err != nil {
		return err
	}
	raw, err := codec.Encode(value)
	if err != nil {
		return NewEncodingError(err, "core: encode serialized value").
			WithMetadata(map[string]any{"base_key": baseKey, "account_id": accountID, "format": codec.Format()})
	}
	return s.write(ctx, raw, baseKey, accountID, environment)
}

// Remove deletes the scoped key. Removing an absent key is not an error.
func (s *NamespacedStore) Remove(ctx context.Context, baseKey string, accountID string, environment string) error {
	if err := validateScope(baseKey, accountID); err != nil {
		return err
	}
	kv, err := s.substrate()
	if err != nil {
		return err
	}
	if err := kv.Remove(ctx, ScopedKey(baseKey, accountID, environment)); err != nil {
		return NewStoreError(err, "core: remove value").
			WithMetadata(map[string]any{"base_key": baseKey, "account_id": accountID})
	}
	s.observers.notify(ctx, ChangeEvent{
		BaseKey:     baseKey,
		AccountID:   accountID,
		Environment: environment,
		Kind:        ChangeRemoved,
	})
	return nil
}

// PurgeAccount removes every entry owned by accountID in every environment.
func (s *NamespacedStore) PurgeAccount(ctx context.Context, accountID string) error {
	if strings.TrimSpace(accountID) == "" {
		return NewBadInputError("core: account id is required")
	}
	kv, err := s.substrate()
	if err != nil {
		return err
	}
	keys, err := kv.Keys(ctx, AccountPrefix(accountID))
	if err != nil {
		return NewStoreError(err, "core: list account keys").
			WithMetadata(map[string]any{"account_id": accountID})
	}
	for _, key := range keys {
		if err := kv.Remove(ctx, key); err != nil {
			return NewStoreError(err, "core: purge account key").
				WithMetadata(map[string]any{"account_id": accountID})
		}
		if parts, ok := ParseScopedKey(key); ok {
			s.observers.notify(ctx, ChangeEvent{
				BaseKey:     parts.BaseKey,
				AccountID:   parts.AccountID,
				Environment: parts.Environment,
				Kind:        ChangeRemoved,
			})
		}
	}
	return nil
}

func (s *NamespacedStore) AddObserver(observerID string, fn ObserverFunc) bool {
	return s.observers.add(observerRegistration{id: observerID, scope: ObserveAll, fn: fn})
}

func (s *NamespacedStore) AddKeyObserver(observerID string, baseKey string, fn ObserverFunc) bool {
	return s.observers.add(observerRegistration{id: observerID, scope: ObserveKey, baseKey: baseKey, fn: fn})
}

func (s *NamespacedStore) AddAccountKeyObserver(observerID string, baseKey string, accountID string, fn ObserverFunc) bool {
	return s.observers.add(observerRegistration{
		id:        observerID,
		scope:     ObserveAccountKey,
		baseKey:   baseKey,
		accountID: accountID,
		fn:        fn,
	})
}

// RemoveObserver drops every registration made under observerID and reports
// how many were removed.
func (s *NamespacedStore) RemoveObserver(observerID string) int {
	return s.observers.remove(observerID)
}

func (s *NamespacedStore) raw(ctx context.Context, baseKey string, accountID string, environment string) ([]byte, bool, error) {
	if err := validateScope(baseKey, accountID); err != nil {
		return nil, false, err
	}
	kv, err := s.substrate()
	if err != nil {
		return nil, false, err
	}
	raw, ok, err := kv.Get(ctx, ScopedKey(baseKey, accountID, environment))
	if err != nil {
		return nil, false, NewStoreError(err, "core: read value").
			WithMetadata(map[string]any{"base_key": baseKey, "account_id": accountID})
	}
	return raw, ok, nil
}

func (s *NamespacedStore) write(ctx context.Context, raw []byte, baseKey string, accountID string, environment string) error {
	kv, err := s.substrate()
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, ScopedKey(baseKey, accountID, environment), raw); err != nil {
		return NewStoreError(err, "core: write value").
			WithMetadata(map[string]any{"base_key": baseKey, "account_id": accountID})
	}
	s.observers.notify(ctx, ChangeEvent{
		BaseKey:     baseKey,
		AccountID:   accountID,
		Environment: environment,
		Kind:        ChangeSet,
	})
	return nil
}

func (s *NamespacedStore) substrate() (KeyValueStore, error) {
	if s == nil || s.kv == nil {
		return nil, newAccountError("core: key value store is required", goerrors.CategoryInternal, AccountErrorInternal)
	}
	return s.kv, nil
}

func (s *NamespacedStore) valueCodec() (ValueCodec, error) {
	if s == nil || s.codec == nil {
		return nil, NewBadInputError("core: value codec is required for serialized values")
	}
	return s.codec, nil
}

// ReservedBaseKeyPrefix marks base keys owned by the package itself.
const ReservedBaseKeyPrefix = "__"

func validateScope(baseKey string, accountID string) error {
	if strings.TrimSpace(baseKey) == "" {
		return NewBadInputError("core: base key is required")
	}
	if strings.HasPrefix(baseKey, ReservedBaseKeyPrefix) {
		return NewBadInputError("core: base key is reserved").
			WithMetadata(map[string]any{"base_key": baseKey})
	}
	if strings.TrimSpace(accountID) == "" {
		return NewBadInputError("core: account id is required")
	}
	return nil
}
