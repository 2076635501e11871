package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"formula-trivia/internal/domain"
	"github.com/samber/lo"
)

// ResultStore keeps level results and a per-level leaderboard in memory.
// It implements both app.ResultRepository and app.LeaderboardRepository.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.LevelResult
	best    map[int]map[string]domain.LeaderboardEntry
}

func NewResultStore() *ResultStore {
	return &ResultStore{best: make(map[int]map[string]domain.LeaderboardEntry)}
}

func (s *ResultStore) SaveResult(_ context.Context, result domain.LevelResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) PersonalBest(_ context.Context, playerID string, level int) (time.Duration, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perfect := lo.Filter(s.results, func(r domain.LevelResult, _ int) bool {
		return r.PlayerID == playerID && r.Level == level && r.Outcome == domain.OutcomePerfect
	})
	if len(perfect) == 0 {
		return 0, false, nil
	}
	best := lo.MinBy(perfect, func(a, b domain.LevelResult) bool { return a.LevelTime < b.LevelTime })
	return best.LevelTime, true, nil
}

// Results returns a copy of every stored result for a player.
func (s *ResultStore) Results(playerID string) []domain.LevelResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.results, func(r domain.LevelResult, _ int) bool { return r.PlayerID == playerID })
}

func (s *ResultStore) Submit(_ context.Context, result domain.LevelResult) error {
	if result.Outcome != domain.OutcomePerfect {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.best[result.Level]
	if !ok {
		board = make(map[string]domain.LeaderboardEntry)
		s.best[result.Level] = board
	}
	if entry, ok := board[result.PlayerID]; ok && entry.BestTime <= result.LevelTime {
		entry.DisplayName = result.DisplayName
		board[result.PlayerID] = entry
		return nil
	}
	board[result.PlayerID] = domain.LeaderboardEntry{
		PlayerID:    result.PlayerID,
		DisplayName: result.DisplayName,
		BestTime:    result.LevelTime,
	}
	return nil
}

func (s *ResultStore) Top(_ context.Context, level, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	entries := lo.Values(s.best[level])
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestTime != entries[j].BestTime {
			return entries[i].BestTime < entries[j].BestTime
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
