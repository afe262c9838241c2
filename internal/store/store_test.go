package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yourusername/task-keeper/internal/models"
	"github.com/yourusername/task-keeper/internal/store"
	"github.com/yourusername/task-keeper/internal/testutil"
)

func strPtr(s string) *string { return &s }

func createUser(t *testing.T, users *store.UserStore, username, email string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, PasswordHash: "hash"}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	if u.ID == 0 {
		t.Fatalf("expected generated id for %s", username)
	}
	return u
}

func TestUserStoreCreateRejectsDuplicates(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := store.NewUserStore(db, time.Second)
	ctx := context.Background()

	createUser(t, users, "alice", "a@x.com")

	err := users.Create(ctx, &models.User{Username: "alice", Email: "b@x.com", PasswordHash: "h"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate username: got %v, want ErrDuplicate", err)
	}
	err = users.Create(ctx, &models.User{Username: "bob", Email: "a@x.com", PasswordHash: "h"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("duplicate email: got %v, want ErrDuplicate", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one user row, got %d", count)
	}
}

func TestUserStoreFindByIdentifier(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := store.NewUserStore(db, time.Second)
	ctx := context.Background()
	alice := createUser(t, users, "alice", "a@x.com")

	byName, err := users.FindByIdentifier(ctx, "alice")
	if err != nil || byName == nil || byName.ID != alice.ID {
		t.Fatalf("find by username: %v %+v", err, byName)
	}
	byEmail, err := users.FindByIdentifier(ctx, "a@x.com")
	if err != nil || byEmail == nil || byEmail.ID != alice.ID {
		t.Fatalf("find by email: %v %+v", err, byEmail)
	}
	missing, err := users.FindByIdentifier(ctx, "nobody")
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown identifier, got %+v %v", missing, err)
	}
}

func TestTaskStoreListIsScopedAndOrdered(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := store.NewUserStore(db, time.Second)
	tasks := store.NewTaskStore(db, time.Second)
	ctx := context.Background()

	alice := createUser(t, users, "alice", "a@x.com")
	bob := createUser(t, users, "bob", "b@x.com")

	for _, name := range []string{"first", "second", "third"} {
		if err := tasks.Create(ctx, &models.Task{UserID: alice.ID, Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	if err := tasks.Create(ctx, &models.Task{UserID: bob.ID, Name: "bob's"}); err != nil {
		t.Fatalf("create bob task: %v", err)
	}

	list, err := tasks.ListByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 tasks for alice, got %d", len(list))
	}
	want := []string{"third", "second", "first"}
	for i, task := range list {
		if task.Name != want[i] {
			t.Fatalf("list[%d] = %q, want %q", i, task.Name, want[i])
		}
		if task.UserID != alice.ID {
			t.Fatalf("list leaked task of user %d", task.UserID)
		}
	}
}

func TestTaskStoreDueRoundTrip(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := store.NewUserStore(db, time.Second)
	tasks := store.NewTaskStore(db, time.Second)
	ctx := context.Background()
	alice := createUser(t, users, "alice", "a@x.com")

	if err := tasks.Create(ctx, &models.Task{UserID: alice.ID, Name: "dated", DueDate: strPtr("2024-03-01"), DueTime: strPtr("14:30")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := tasks.ListByOwner(ctx, alice.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	got := list[0]
	if got.DueDate == nil || *got.DueDate != "2024-03-01" {
		t.Fatalf("unexpected due date: %v", got.DueDate)
	}
	if got.DueTime == nil || *got.DueTime != "14:30" {
		t.Fatalf("unexpected due time: %v", got.DueTime)
	}
}

func TestTaskStoreUpdateOwned(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := store.NewUserStore(db, time.Second)
	tasks := store.NewTaskStore(db, time.Second)
	ctx := context.Background()
	alice := createUser(t, users, "alice", "a@x.com")
	bob := createUser(t, users, "bob", "b@x.com")

	task := &models.Task{UserID: alice.ID, Name: "draft", DueDate: strPtr("2024-03-01")}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := tasks.UpdateOwned(ctx, bob.ID, task.ID, "hijacked", nil, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update by non-owner: got %v, want ErrNotFound", err)
	}
	if err := tasks.UpdateOwned(ctx, alice.ID, task.ID+100, "ghost", nil, nil); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update of missing task: got %v, want ErrNotFound", err)
	}
	if err := tasks.UpdateOwned(ctx, alice.ID, task.ID, "final", nil, strPtr("09:15")); err != nil {
		t.Fatalf("update by owner: %v", err)
	}
	// 同じ値での再更新も成功扱い
	if err := tasks.UpdateOwned(ctx, alice.ID, task.ID, "final", nil, strPtr("09:15")); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}

	list, err := tasks.ListByOwner(ctx, alice.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	got := list[0]
	if got.Name != "final" || got.DueDate != nil || got.DueTime == nil || *got.DueTime != "09:15" {
		t.Fatalf("unexpected task after update: %+v", got)
	}
}

func TestTaskStoreDeleteOwned(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := store.NewUserStore(db, time.Second)
	tasks := store.NewTaskStore(db, time.Second)
	ctx := context.Background()
	alice := createUser(t, users, "alice", "a@x.com")
	bob := createUser(t, users, "bob", "b@x.com")

	task := &models.Task{UserID: alice.ID, Name: "keep"}
	if err := tasks.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := tasks.DeleteOwned(ctx, bob.ID, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("delete by non-owner: got %v, want ErrNotFound", err)
	}
	if err := tasks.DeleteOwned(ctx, alice.ID, task.ID); err != nil {
		t.Fatalf("delete by owner: %v", err)
	}
	if err := tasks.DeleteOwned(ctx, alice.ID, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeletingUserCascadesToTasks(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	users := store.NewUserStore(db, time.Second)
	tasks := store.NewTaskStore(db, time.Second)
	ctx := context.Background()
	alice := createUser(t, users, "alice", "a@x.com")

	if err := tasks.Create(ctx, &models.Task{UserID: alice.ID, Name: "orphan?"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var count int64
	if err := db.Model(&models.Task{}).Count(&count).Error; err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected tasks to be removed with their owner, %d left", count)
	}
}

func TestTaskRequiresExistingOwner(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	tasks := store.NewTaskStore(db, time.Second)

	if err := tasks.Create(context.Background(), &models.Task{UserID: 999, Name: "nobody's"}); err == nil {
		t.Fatal("expected foreign key violation for unknown owner")
	}
}
