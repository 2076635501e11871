package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultLevelsPenaltyRules(t *testing.T) {
	levels := DefaultLevels()
	if len(levels) != 5 {
		t.Fatalf("expected 5 levels, got %d", len(levels))
	}
	for _, n := range []int{1, 2} {
		cfg, err := levels.Lookup(n)
		if err != nil {
			t.Fatalf("lookup %d: %v", n, err)
		}
		if cfg.HasPenalties {
			t.Fatalf("level %d should not have penalties", n)
		}
	}
	surcharges := map[int]time.Duration{3: 0, 4: 5 * time.Second, 5: 10 * time.Second}
	for n, want := range surcharges {
		cfg, _ := levels.Lookup(n)
		if !cfg.HasPenalties || cfg.PenaltyPerWrong != time.Second {
			t.Fatalf("level %d: expected 1s penalty, got %+v", n, cfg)
		}
		if cfg.FirstWrongSurcharge != want {
			t.Fatalf("level %d: expected surcharge %v, got %v", n, want, cfg.FirstWrongSurcharge)
		}
		if cfg.QuestionsToSelect != 25 || cfg.MaxWrongAnswers != 3 {
			t.Fatalf("level %d: unexpected counts %+v", n, cfg)
		}
	}
}

func TestLookupUnknownLevel(t *testing.T) {
	_, err := DefaultLevels().Lookup(6)
	if !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("expected ErrUnknownLevel, got %v", err)
	}
}

func TestWithDoesNotMutateOriginal(t *testing.T) {
	base := DefaultLevels()
	cfg, _ := base.Lookup(4)
	cfg.FirstWrongSurcharge = 7 * time.Second
	updated := base.With(cfg)

	if got, _ := updated.Lookup(4); got.FirstWrongSurcharge != 7*time.Second {
		t.Fatalf("expected override applied, got %v", got.FirstWrongSurcharge)
	}
	if got, _ := base.Lookup(4); got.FirstWrongSurcharge != 5*time.Second {
		t.Fatalf("expected base untouched, got %v", got.FirstWrongSurcharge)
	}
}

func TestOrderedAndMaxLevel(t *testing.T) {
	ordered := DefaultLevels().Ordered()
	for i, cfg := range ordered {
		if cfg.Level != i+1 {
			t.Fatalf("expected level %d at %d, got %d", i+1, i, cfg.Level)
		}
	}
	if DefaultLevels().MaxLevel() != 5 {
		t.Fatalf("expected max level 5")
	}
}
