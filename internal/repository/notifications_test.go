package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"
)

func seedNotifications(t *testing.T, bins *fakeBinStore, items ...models.Notification) {
	t.Helper()
	bins.seed(t, "notifications-bin", map[string][]models.Notification{"notifications": items})
}

func TestListNotificationsFiltersPersonal(t *testing.T) {
	svc, bins := newTestService(t)
	seedNotifications(t, bins,
		models.Notification{ID: "n1", Title: "Maintenance", Type: models.NotificationGeneral, CreatedAt: time.Now().UTC()},
		models.Notification{ID: "n2", Title: "For Alice", Type: models.NotificationPersonal, RecipientID: "u1", CreatedAt: time.Now().UTC()},
		models.Notification{ID: "n3", Title: "For Bob", Type: models.NotificationPersonal, RecipientID: "u2", CreatedAt: time.Now().UTC()},
	)

	items, err := svc.ListNotificationsForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListNotificationsForUser failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 visible notifications, got %d", len(items))
	}
	for _, n := range items {
		if n.ID == "n3" {
			t.Error("another user's personal notification must not be visible")
		}
	}
}

func TestMarkNotificationReadTracksPerUser(t *testing.T) {
	svc, bins := newTestService(t)
	seedNotifications(t, bins,
		models.Notification{ID: "n1", Title: "Broadcast", Type: models.NotificationGeneral, CreatedAt: time.Now().UTC()},
	)

	n, err := svc.MarkNotificationRead(context.Background(), "n1", "u1")
	if err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	if !n.IsReadBy("u1") {
		t.Error("expected notification read by u1")
	}
	if n.IsReadBy("u2") {
		t.Error("one reader must not mark a broadcast read for everyone")
	}

	// Second read by the same user is idempotent.
	n, err = svc.MarkNotificationRead(context.Background(), "n1", "u1")
	if err != nil {
		t.Fatalf("repeat MarkNotificationRead failed: %v", err)
	}
	if len(n.ReadBy) != 1 {
		t.Errorf("expected single ReadBy entry, got %d", len(n.ReadBy))
	}
}

func TestRecipientBearingNotificationIsPrivate(t *testing.T) {
	svc, bins := newTestService(t)
	// Recipient-bearing records stay private whatever the type says.
	seedNotifications(t, bins,
		models.Notification{ID: "n1", Title: "Welcome", Type: models.NotificationSystem, RecipientID: "u2", CreatedAt: time.Now().UTC()},
	)

	items, err := svc.ListNotificationsForUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListNotificationsForUser failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("another user's addressed notification must not be visible, got %d", len(items))
	}

	if _, err := svc.MarkNotificationRead(context.Background(), "n1", "u1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("non-recipient must not mark it read, got %v", err)
	}

	items, err = svc.ListNotificationsForUser(context.Background(), "u2")
	if err != nil {
		t.Fatalf("ListNotificationsForUser failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("the recipient should see the notification, got %d", len(items))
	}
}

func TestMarkNotificationReadChecksVisibility(t *testing.T) {
	svc, bins := newTestService(t)
	seedNotifications(t, bins,
		models.Notification{ID: "n1", Title: "For Bob", Type: models.NotificationPersonal, RecipientID: "u2", CreatedAt: time.Now().UTC()},
	)

	_, err := svc.MarkNotificationRead(context.Background(), "n1", "u1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for invisible notification, got %v", err)
	}
}

func TestMarkNotificationReadUnknownID(t *testing.T) {
	svc, bins := newTestService(t)
	seedNotifications(t, bins)

	_, err := svc.MarkNotificationRead(context.Background(), "missing", "u1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
