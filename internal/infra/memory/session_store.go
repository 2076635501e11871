package memory

import (
	"sync"
	"time"

	"formula-trivia/internal/app"
	"github.com/samber/lo"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu    sync.RWMutex
	games map[string]*app.Game
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		games: make(map[string]*app.Game),
	}
}

func (s *SessionStore) Get(playerID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[playerID]
	return game, ok
}

func (s *SessionStore) Put(game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.PlayerID()] = game
}

func (s *SessionStore) Delete(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, playerID)
}

// Sweep drops games idle for longer than maxIdle and returns how many were removed.
// Game locks are never taken while the store lock is held.
func (s *SessionStore) Sweep(maxIdle time.Duration, now time.Time) int {
	s.mu.RLock()
	games := lo.Values(s.games)
	s.mu.RUnlock()

	idle := lo.Filter(games, func(g *app.Game, _ int) bool {
		return now.Sub(g.LastAccess()) > maxIdle
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, game := range idle {
		if s.games[game.PlayerID()] == game {
			delete(s.games, game.PlayerID())
			removed++
		}
	}
	return removed
}
