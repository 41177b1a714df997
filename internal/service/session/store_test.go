package session

import (
	"context"
	"testing"

	"github.com/zhouzirui/qa-forum/frontend/internal/model/account"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	user, err := store.Load(ctx)
	if err != nil || user != nil {
		t.Fatalf("fresh store should be a guest, got %+v err=%v", user, err)
	}

	if err := store.Save(ctx, account.User{ID: "7", Username: "ann"}); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	user, err = store.Load(ctx)
	if err != nil || user == nil || user.ID != "7" || user.Username != "ann" {
		t.Fatalf("unexpected session %+v err=%v", user, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	user, err = store.Load(ctx)
	if err != nil || user != nil {
		t.Fatalf("cleared store should be a guest, got %+v err=%v", user, err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestPebbleStoreInMemory(t *testing.T) {
	store, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory err: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestPebbleStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("OpenPebble err: %v", err)
	}
	if err := store.Save(ctx, account.User{ID: "3", Username: "bob"}); err != nil {
		t.Fatalf("Save err: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close err: %v", err)
	}

	reopened, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("reopen err: %v", err)
	}
	defer reopened.Close()

	user, err := reopened.Load(ctx)
	if err != nil || user == nil || user.Username != "bob" {
		t.Fatalf("session lost across reopen: %+v err=%v", user, err)
	}
}
