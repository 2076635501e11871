package redis

import (
	"context"
	"testing"
	"time"

	"formula-trivia/internal/app"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	store.Put(app.NewGame("p1", "Alice"))
	if !mr.Exists("game:session:p1") {
		t.Fatalf("expected redis key to be set")
	}
	if _, ok := store.Get("p1"); !ok {
		t.Fatalf("expected game in local map")
	}
	active, err := store.ActivePlayers(context.Background())
	if err != nil || active != 1 {
		t.Fatalf("expected 1 active player, got %d (%v)", active, err)
	}

	store.Delete("p1")
	if mr.Exists("game:session:p1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreSweepClearsMarkers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	store.Put(app.NewGame("p1", "Alice"))

	if removed := store.Sweep(time.Hour, time.Now()); removed != 0 {
		t.Fatalf("expected fresh game kept, removed %d", removed)
	}
	if removed := store.Sweep(time.Hour, time.Now().Add(2*time.Hour)); removed != 1 {
		t.Fatalf("expected idle game removed, removed %d", removed)
	}
	if mr.Exists("game:session:p1") {
		t.Fatalf("expected marker removed with the game")
	}
}
