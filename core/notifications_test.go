package core

import (
	"context"
	"reflect"
	"testing"
)

func TestNotificationCenter_FiltersByNameAndPreservesOrder(t *testing.T) {
	ctx := context.Background()
	center := NewNotificationCenter()

	calls := []string{}
	center.Subscribe(DidClearAccounts, func(context.Context, Notification) { calls = append(calls, "named") })
	center.Subscribe("", func(context.Context, Notification) { calls = append(calls, "all") })

	center.Post(ctx, Notification{Name: DidClearAccounts})
	center.Post(ctx, Notification{Name: WillClearAccounts})

	expected := []string{"named", "all", "all"}
	if !reflect.DeepEqual(calls, expected) {
		t.Fatalf("expected %v, got %v", expected, calls)
	}
}

func TestNotificationCenter_CancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	center := NewNotificationCenter()
	count := 0
	cancel := center.Subscribe(DidUpdateAuthCredential, func(context.Context, Notification) { count++ })

	center.Post(ctx, Notification{Name: DidUpdateAuthCredential, AccountID: "a"})
	cancel()
	cancel()
	center.Post(ctx, Notification{Name: DidUpdateAuthCredential, AccountID: "a"})

	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}
}

func TestNotificationCenter_NilSafe(t *testing.T) {
	var center *NotificationCenter
	center.Post(context.Background(), Notification{Name: DidClearAccounts})
	cancel := center.Subscribe("", func(context.Context, Notification) {})
	cancel()
}
