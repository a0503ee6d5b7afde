package core

import (
	"context"
	"strings"
	"sync"
)

type ChangeKind string

const (
	ChangeSet     ChangeKind = "set"
	ChangeRemoved ChangeKind = "removed"
)

// ChangeEvent carries enough context for an observer to re-read the value.
type ChangeEvent struct {
	BaseKey     string
	AccountID   string
	Environment string
	Kind        ChangeKind
}

type ObserverFunc func(ctx context.Context, event ChangeEvent)

type ObserverScope string

const (
	ObserveAll        ObserverScope = "all"
	ObserveKey        ObserverScope = "key"
	ObserveAccountKey ObserverScope = "account_key"
)

type observerRegistration struct {
	id        string
	scope     ObserverScope
	baseKey   string
	accountID string
	fn        ObserverFunc
}

func (r observerRegistration) identity() string {
	return strings.Join([]string{string(r.scope), r.id, r.baseKey, r.accountID}, "\x00")
}

func (r observerRegistration) matches(event ChangeEvent) bool {
	switch r.scope {
	case ObserveAll:
		return true
	case ObserveKey:
		return r.baseKey == event.BaseKey
	case ObserveAccountKey:
		return r.baseKey == event.BaseKey && r.accountID == event.AccountID
	default:
		return false
	}
}

type observerRegistry struct {
	mu            sync.Mutex
	registrations []observerRegistration
}

func newObserverRegistry() *observerRegistry {
	return &observerRegistry{}
}

func (r *observerRegistry) add(reg observerRegistration) bool {
	if r == nil || reg.fn == nil || strings.TrimSpace(reg.id) == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	identity := reg.identity()
	for _, existing := range r.registrations {
		if existing.identity() == identity {
			return false
		}
	}
	r.registrations = append(r.registrations, reg)
	return true
}

func (r *observerRegistry) remove(id string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.registrations[:0]
	removed := 0
	for _, reg := range r.registrations {
		if reg.id == id {
			removed++
			continue
		}
		kept = append(kept, reg)
	}
	for i := len(kept); i < len(r.registrations); i++ {
		r.registrations[i] = observerRegistration{}
	}
	r.registrations = kept
	return removed
}

// notify runs matching observers in registration order. The lock is released
// before delivery so observers may re-enter the store.
func (r *observerRegistry) notify(ctx context.Context, event ChangeEvent) {
	if r == nil {
		return
	}
	r.mu.Lock()
	matched := make([]ObserverFunc, 0, len(r.registrations))
	for _, reg := range r.registrations {
		if reg.matches(event) {
			matched = append(matched, reg.fn)
		}
	}
	r.mu.Unlock()
	for _, fn := range matched {
		fn(ctx, event)
	}
}
