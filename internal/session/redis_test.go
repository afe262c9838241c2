package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	issued := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

	if err := store.Save(ctx, "abc", &Record{Identity: Identity{UserID: 3, Username: "carol"}, IssuedAt: issued}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("session:abc") {
		t.Fatal("expected session key in redis")
	}
	if ttl := mr.TTL("session:abc"); ttl != time.Hour {
		t.Fatalf("unexpected ttl: %v", ttl)
	}

	rec, err := store.Load(ctx, "abc")
	if err != nil || rec == nil {
		t.Fatalf("load: %v %+v", err, rec)
	}
	if rec.UserID != 3 || rec.Username != "carol" || !rec.IssuedAt.Equal(issued) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if rec, err := store.Load(ctx, "abc"); err != nil || rec != nil {
		t.Fatalf("expected absent record, got %+v %v", rec, err)
	}
}

func TestRedisStoreKeyExpiry(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "short", &Record{Identity: Identity{UserID: 1}, IssuedAt: time.Now()}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if rec, err := store.Load(ctx, "short"); err != nil || rec != nil {
		t.Fatalf("expected expired record, got %+v %v", rec, err)
	}
}

func TestManagerWithRedisStore(t *testing.T) {
	store, _ := newTestRedisStore(t)
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	token, err := m.Create(ctx, Identity{UserID: 9, Username: "dave"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id, err := m.Lookup(ctx, token)
	if err != nil || id == nil || id.UserID != 9 {
		t.Fatalf("lookup: %+v %v", id, err)
	}
	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if id, _ := m.Lookup(ctx, token); id != nil {
		t.Fatalf("session survived destroy: %+v", id)
	}
}
