package memory

import (
	"context"
	"testing"
	"time"

	"formula-trivia/internal/domain"
)

func TestResultStorePersonalBest(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()

	if _, ok, _ := store.PersonalBest(ctx, "p1", 1); ok {
		t.Fatalf("expected no best yet")
	}
	_ = store.SaveResult(ctx, result("p1", 1, domain.OutcomePerfect, 40*time.Second))
	_ = store.SaveResult(ctx, result("p1", 1, domain.OutcomeDNF, 20*time.Second))
	_ = store.SaveResult(ctx, result("p1", 1, domain.OutcomePerfect, 35*time.Second))

	best, ok, err := store.PersonalBest(ctx, "p1", 1)
	if err != nil || !ok {
		t.Fatalf("expected best, got ok=%v err=%v", ok, err)
	}
	if best != 35*time.Second {
		t.Fatalf("expected 35s best ignoring DNF, got %v", best)
	}
	if len(store.Results("p1")) != 3 {
		t.Fatalf("expected 3 stored results")
	}
}

func TestResultStoreLeaderboard(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()

	_ = store.Submit(ctx, result("p1", 3, domain.OutcomePerfect, 50*time.Second))
	_ = store.Submit(ctx, result("p2", 3, domain.OutcomePerfect, 45*time.Second))
	_ = store.Submit(ctx, result("p1", 3, domain.OutcomePerfect, 60*time.Second))
	_ = store.Submit(ctx, result("p3", 3, domain.OutcomeDNF, 10*time.Second))
	_ = store.Submit(ctx, result("p3", 2, domain.OutcomePerfect, 10*time.Second))

	entries, err := store.Top(ctx, 3, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].PlayerID != "p2" || entries[0].Rank != 1 {
		t.Fatalf("expected p2 first, got %+v", entries[0])
	}
	if entries[1].PlayerID != "p1" || entries[1].BestTime != 50*time.Second {
		t.Fatalf("expected p1 keeping 50s best, got %+v", entries[1])
	}

	limited, _ := store.Top(ctx, 3, 1)
	if len(limited) != 1 {
		t.Fatalf("expected limit applied, got %d", len(limited))
	}
}

func result(playerID string, level int, outcome domain.Outcome, levelTime time.Duration) domain.LevelResult {
	return domain.LevelResult{
		PlayerID:    playerID,
		DisplayName: "Player " + playerID,
		Level:       level,
		Outcome:     outcome,
		LevelTime:   levelTime,
		TotalTime:   levelTime,
	}
}
