package core

import (
	"context"
	"sync"
)

type NotificationName string

const (
	WillChangeCurrentAccount NotificationName = "accounts.will_change_current_account"
	DidChangeCurrentAccount  NotificationName = "accounts.did_change_current_account"
	WillClearAccounts        NotificationName = "accounts.will_clear_accounts"
	DidClearAccounts         NotificationName = "accounts.did_clear_accounts"
	WillClearCurrentAccount  NotificationName = "accounts.will_clear_current_account"
	DidClearCurrentAccount   NotificationName = "accounts.did_clear_current_account"
	DidUpdateAuthCredential  NotificationName = "accounts.did_update_auth_credential"
)

// Notification is delivered to subscribers. Previous and Current are set for
// current-account changes; AccountID is set for credential updates.
type Notification struct {
	Name      NotificationName
	AccountID string
	Previous  AccountLike
	Current   AccountLike
}

type NotificationHandler func(ctx context.Context, notification Notification)

type notificationSubscription struct {
	id      uint64
	name    NotificationName
	handler NotificationHandler
}

// NotificationCenter fans registry and account lifecycle notifications out
// to subscribers synchronously, in subscription order.
type NotificationCenter struct {
	mu            sync.Mutex
	nextID        uint64
	subscriptions []notificationSubscription
}

func NewNotificationCenter() *NotificationCenter {
	return &NotificationCenter{}
}

// Subscribe registers handler for name, or for every notification when name
// is empty. The returned func cancels the subscription.
func (c *NotificationCenter) Subscribe(name NotificationName, handler NotificationHandler) func() {
	if c == nil || handler == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subscriptions = append(c.subscriptions, notificationSubscription{id: id, name: name, handler: handler})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.unsubscribe(id) })
	}
}

func (c *NotificationCenter) Post(ctx context.Context, notification Notification) {
	if c == nil {
		return
	}
	c.mu.Lock()
	handlers := make([]NotificationHandler, 0, len(c.subscriptions))
	for _, sub := range c.subscriptions {
		if sub.name == "" || sub.name == notification.Name {
			handlers = append(handlers, sub.handler)
		}
	}
	c.mu.Unlock()
	for _, handler := range handlers {
		handler(ctx, notification)
	}
}

func (c *NotificationCenter) unsubscribe(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sub := range c.subscriptions {
		if sub.id == id {
			c.subscriptions = append(c.subscriptions[:i], c.subscriptions[i+1:]...)
			return
		}
	}
}
