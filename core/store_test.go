package core

import (
	"context"
	"errors"
	"reflect"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNamespacedStore_SetGetIsolatedByEnvironment(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	if err := store.SetString(ctx, "joe@example.com", "email", "acct", "staging"); err != nil {
		t.Fatalf("set string: %v", err)
	}
	value, ok, err := store.String(ctx, "email", "acct", "staging")
	if err != nil || !ok || value != "joe@example.com" {
		t.Fatalf("expected stored value, got %q ok=%v err=%v", value, ok, err)
	}
	for _, environment := range []string{"", "production"} {
		if _, ok, err := store.String(ctx, "email", "acct", environment); err != nil || ok {
			t.Fatalf("expected absent under %q, ok=%v err=%v", environment, ok, err)
		}
	}
	if _, ok, _ := store.String(ctx, "email", "other", "staging"); ok {
		t.Fatalf("expected absent for another account")
	}
}

func TestNamespacedStore_TypedAccessors(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	if err := store.SetInteger(ctx, -42, "int", "acct", ""); err != nil {
		t.Fatalf("set integer: %v", err)
	}
	if got, ok, _ := store.Integer(ctx, "int", "acct", ""); !ok || got != -42 {
		t.Fatalf("expected -42, got %d ok=%v", got, ok)
	}
	if got, ok, _ := store.Number(ctx, "int", "acct", ""); !ok || got != -42 {
		t.Fatalf("expected number -42, got %v ok=%v", got, ok)
	}

	if err := store.SetFloat(ctx, 1.5, "float", "acct", ""); err != nil {
		t.Fatalf("set float: %v", err)
	}
	if got, ok, _ := store.Float(ctx, "float", "acct", ""); !ok || got != 1.5 {
		t.Fatalf("expected 1.5, got %v ok=%v", got, ok)
	}

	if err := store.SetDouble(ctx, 2.25, "double", "acct", ""); err != nil {
		t.Fatalf("set double: %v", err)
	}
	if got, ok, _ := store.Double(ctx, "double", "acct", ""); !ok || got != 2.25 {
		t.Fatalf("expected 2.25, got %v ok=%v", got, ok)
	}

	if err := store.SetBool(ctx, true, "flag", "acct", ""); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if got, _ := store.Bool(ctx, "flag", "acct", ""); !got {
		t.Fatalf("expected true")
	}
	if got, err := store.Bool(ctx, "missing", "acct", ""); got || err != nil {
		t.Fatalf("expected false for absent bool, got %v err=%v", got, err)
	}

	data := []byte{0x00, 0x01, 0xff}
	if err := store.SetData(ctx, data, "blob", "acct", ""); err != nil {
		t.Fatalf("set data: %v", err)
	}
	if got, ok, _ := store.Data(ctx, "blob", "acct", ""); !ok || !reflect.DeepEqual(got, data) {
		t.Fatalf("expected data round trip, got %v", got)
	}

	array := []any{"a", true, "c"}
	if err := store.SetArray(ctx, array, "list", "acct", ""); err != nil {
		t.Fatalf("set array: %v", err)
	}
	if got, ok, _ := store.Array(ctx, "list", "acct", ""); !ok || !reflect.DeepEqual(got, array) {
		t.Fatalf("expected array round trip, got %#v", got)
	}

	mapping := map[string]any{"name": "joe", "nested": map[string]any{"ok": true}}
	if err := store.SetMap(ctx, mapping, "map", "acct", ""); err != nil {
		t.Fatalf("set map: %v", err)
	}
	if got, ok, _ := store.Map(ctx, "map", "acct", ""); !ok || !reflect.DeepEqual(got, mapping) {
		t.Fatalf("expected map round trip, got %#v", got)
	}
}

func TestNamespacedStore_TypeMismatchReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	if err := store.SetString(ctx, "text", "key", "acct", ""); err != nil {
		t.Fatalf("set string: %v", err)
	}
	if _, ok, err := store.Integer(ctx, "key", "acct", ""); ok || err != nil {
		t.Fatalf("expected mismatch to read as absent, ok=%v err=%v", ok, err)
	}
}

func TestNamespacedStore_NilClearsAndRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()

	if err := store.SetMap(ctx, map[string]any{"a": "b"}, "map", "acct", ""); err != nil {
		t.Fatalf("set map: %v", err)
	}
	if err := store.SetMap(ctx, nil, "map", "acct", ""); err != nil {
		t.Fatalf("set nil map: %v", err)
	}
	if _, ok, _ := store.Map(ctx, "map", "acct", ""); ok {
		t.Fatalf("expected nil write to clear the slot")
	}
	if err := store.Remove(ctx, "map", "acct", ""); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if err := store.Remove(ctx, "never", "acct", "staging"); err != nil {
		t.Fatalf("remove never set: %v", err)
	}
	if len(kv.values) != 0 {
		t.Fatalf("expected empty substrate, got %v", kv.values)
	}
}

func TestNamespacedStore_SerializedRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()

	type profile struct {
		Name  string   `json:"name"`
		Tags  []string `json:"tags"`
		Score int      `json:"score"`
	}
	in := profile{Name: "joe", Tags: []string{"a", "b"}, Score: 7}
	if err := store.SetSerialized(ctx, in, "profile", "acct", ""); err != nil {
		t.Fatalf("set serialized: %v", err)
	}
	var out profile
	ok, err := store.Serialized(ctx, &out, "profile", "acct", "")
	if err != nil || !ok {
		t.Fatalf("serialized: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

func TestNamespacedStore_SerializedEncodeFailureLeavesSlotUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := newMemoryKV()
	good := NewNamespacedStore(kv, jsonValueCodec{})
	if err := good.SetSerialized(ctx, "original", "key", "acct", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	bad := NewNamespacedStore(kv, failingValueCodec{})
	err := bad.SetSerialized(ctx, "replacement", "key", "acct", "")
	if err == nil {
		t.Fatalf("expected encoding failure")
	}
	if !IsEncodingFailure(err) {
		t.Fatalf("expected encoding failure text code, got %v", err)
	}

	var out string
	if ok, err := good.Serialized(ctx, &out, "key", "acct", ""); err != nil || !ok || out != "original" {
		t.Fatalf("expected original value to survive, got %q ok=%v err=%v", out, ok, err)
	}
}

func TestNamespacedStore_SubstrateFailureSurfacesAsStoreFailure(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	kv.setErr = errors.New("disk full")

	err := store.SetString(ctx, "v", "key", "acct", "")
	if !IsStoreFailure(err) {
		t.Fatalf("expected store failure, got %v", err)
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryExternal {
		t.Fatalf("expected external category, got %#v", rich)
	}
}

func TestNamespacedStore_RejectsEmptyScope(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore()
	err := store.SetString(ctx, "v", "key", " ", "")
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != AccountErrorBadInput {
		t.Fatalf("expected bad input, got %v", err)
	}
}

func TestNamespacedStore_PurgeAccountRemovesEveryEnvironment(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore()
	for _, environment := range []string{"", "staging", "production"} {
		if err := store.SetString(ctx, "v", "email", "acct", environment); err != nil {
			t.Fatalf("seed %q: %v", environment, err)
		}
	}
	if err := store.SetString(ctx, "keep", "email", "other", ""); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	removed := []ChangeEvent{}
	store.AddObserver("audit", func(_ context.Context, event ChangeEvent) {
		removed = append(removed, event)
	})

	if err := store.PurgeAccount(ctx, "acct"); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if keys := kv.keysWithPrefix(AccountPrefix("acct")); len(keys) != 0 {
		t.Fatalf("expected no keys left, got %v", keys)
	}
	if _, ok, _ := store.String(ctx, "email", "other", ""); !ok {
		t.Fatalf("expected other account untouched")
	}
	if len(removed) != 3 {
		t.Fatalf("expected 3 removal events, got %d", len(removed))
	}
	for _, event := range removed {
		if event.Kind != ChangeRemoved || event.AccountID != "acct" || event.BaseKey != "email" {
			t.Fatalf("unexpected event %+v", event)
		}
	}
}
