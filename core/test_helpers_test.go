package core

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
)

type memoryKV struct {
	mu       sync.Mutex
	values   map[string][]byte
	setErr   error
	getErr   error
	setCalls int
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string][]byte{}}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := []string{}
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memoryKV) keysWithPrefix(prefix string) []string {
	keys, _ := m.Keys(context.Background(), prefix)
	return keys
}

type memoryVault struct {
	mu       sync.Mutex
	entries  map[string][]byte
	storeErr error
	eraseErr error
	erased   []string
}

func newMemoryVault() *memoryVault {
	return &memoryVault{entries: map[string][]byte{}}
}

func vaultEntryKey(service string, account string) string {
	return service + "\x00" + account
}

func (v *memoryVault) Store(_ context.Context, service string, account string, blob []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.storeErr != nil {
		return v.storeErr
	}
	v.entries[vaultEntryKey(service, account)] = append([]byte(nil), blob...)
	return nil
}

func (v *memoryVault) Retrieve(_ context.Context, service string, account string) ([]byte, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	blob, ok := v.entries[vaultEntryKey(service, account)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

func (v *memoryVault) Erase(_ context.Context, service string, account string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.eraseErr != nil {
		return v.eraseErr
	}
	delete(v.entries, vaultEntryKey(service, account))
	v.erased = append(v.erased, account)
	return nil
}

func (v *memoryVault) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

type jsonValueCodec struct{}

func (jsonValueCodec) Format() string { return "json" }

func (jsonValueCodec) Encode(value any) ([]byte, error) { return json.Marshal(value) }

func (jsonValueCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

type failingValueCodec struct{}

func (failingValueCodec) Format() string { return "failing" }

func (failingValueCodec) Encode(any) ([]byte, error) { return nil, errors.New("codec: cannot encode") }

func (failingValueCodec) Decode([]byte, any) error { return errors.New("codec: cannot decode") }

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type sequenceIdentifiers struct {
	ids  []string
	next int
}

func (s *sequenceIdentifiers) generate() string {
	if s.next >= len(s.ids) {
		return ""
	}
	id := s.ids[s.next]
	s.next++
	return id
}

type notificationRecorder struct {
	events []Notification
}

func (r *notificationRecorder) handle(_ context.Context, n Notification) {
	r.events = append(r.events, n)
}

func (r *notificationRecorder) names() []NotificationName {
	names := make([]NotificationName, 0, len(r.events))
	for _, event := range r.events {
		names = append(names, event.Name)
	}
	return names
}

func (r *notificationRecorder) count(name NotificationName) int {
	total := 0
	for _, event := range r.events {
		if event.Name == name {
			total++
		}
	}
	return total
}

func newTestStore() (*NamespacedStore, *memoryKV) {
	kv := newMemoryKV()
	return NewNamespacedStore(kv, jsonValueCodec{}), kv
}

func newTestRegistry(cfg Config, kv *memoryKV, vault *memoryVault, opts ...Option) (*Registry[*Account], error) {
	base := []Option{
		WithKeyValueStore(kv),
		WithSecureVault(vault),
		WithValueCodec(jsonValueCodec{}),
		WithLogger(stubLogger{}),
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
	}
	return NewRegistry(cfg, append(base, opts...)...)
}
