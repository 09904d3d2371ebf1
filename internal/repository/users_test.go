package repository

import (
	"context"
	"errors"
	"testing"

	"blockbridge-go/internal/models"
	"blockbridge-go/internal/store"
)

func seedUsers(t *testing.T, bins *fakeBinStore, users ...models.User) {
	t.Helper()
	bins.seed(t, "users-bin", map[string][]models.User{"users": users})
}

func TestListUsersEmptyDocument(t *testing.T) {
	svc, bins := newTestService(t)
	bins.seed(t, "users-bin", map[string]any{})

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("expected no users, got %d", len(users))
	}
}

func TestFindByIDNotFound(t *testing.T) {
	svc, bins := newTestService(t)
	seedUsers(t, bins, testUser("u1", "a@example.com"))

	_, err := svc.FindByID(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindByEmailCaseInsensitive(t *testing.T) {
	svc, bins := newTestService(t)
	seedUsers(t, bins, testUser("u1", "Alice@Example.com"))

	u, err := svc.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("expected u1, got %s", u.ID)
	}
}

func TestInsertRejectsDuplicateEmail(t *testing.T) {
	svc, bins := newTestService(t)
	seedUsers(t, bins, testUser("u1", "alice@example.com"))

	_, err := svc.Insert(context.Background(), testUser("u2", "ALICE@example.com"))
	if !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("duplicate insert must not persist, got %d users", len(users))
	}
}

func TestInsertThenFindRoundTrip(t *testing.T) {
	svc, bins := newTestService(t)
	seedUsers(t, bins)

	if _, err := svc.Insert(context.Background(), testUser("u1", "alice@example.com")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	u, err := svc.FindByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("unexpected email %s", u.Email)
	}
}

func TestUpdateInPlaceAppliesPatch(t *testing.T) {
	svc, bins := newTestService(t)
	seedUsers(t, bins, testUser("u1", "alice@example.com"))

	updated, err := svc.UpdateInPlace(context.Background(), "u1", func(u *models.User) error {
		u.Tier = 5
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateInPlace failed: %v", err)
	}
	if updated.Tier != 5 {
		t.Errorf("expected tier 5, got %d", updated.Tier)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped on update")
	}

	persisted, err := svc.FindByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if persisted.Tier != 5 {
		t.Errorf("patch was not persisted, tier is %d", persisted.Tier)
	}
}

func TestUpdateInPlacePatchErrorAborts(t *testing.T) {
	svc, bins := newTestService(t)
	seedUsers(t, bins, testUser("u1", "alice@example.com"))

	wantErr := errors.New("patch rejected")
	_, err := svc.UpdateInPlace(context.Background(), "u1", func(u *models.User) error {
		u.Tier = 9
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected patch error, got %v", err)
	}

	persisted, err := svc.FindByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if persisted.Tier != 1 {
		t.Errorf("failed patch must not persist, tier is %d", persisted.Tier)
	}
}

func TestUpdateInPlaceUnknownUser(t *testing.T) {
	svc, bins := newTestService(t)
	seedUsers(t, bins)

	_, err := svc.UpdateInPlace(context.Background(), "missing", func(u *models.User) error { return nil })
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
