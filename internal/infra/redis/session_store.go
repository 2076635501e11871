package redis

import (
	"context"
	"sync"
	"time"

	"formula-trivia/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Games stay in a local map because the engine state is in-process; Redis
// holds a liveness marker per player so other instances can see who is playing.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
	}
}

func (s *SessionStore) Get(playerID string) (*app.Game, bool) {
	s.mu.RLock()
	game, ok := s.games[playerID]
	s.mu.RUnlock()
	if ok {
		// best-effort refresh of the marker
		_ = s.client.Expire(context.Background(), s.key(playerID), s.ttl).Err()
	}
	return game, ok
}

func (s *SessionStore) Put(game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.PlayerID()] = game
	_ = s.client.Set(context.Background(), s.key(game.PlayerID()), "1", s.ttl).Err()
}

func (s *SessionStore) Delete(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, playerID)
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

// Sweep drops local games idle for longer than maxIdle along with their markers.
func (s *SessionStore) Sweep(maxIdle time.Duration, now time.Time) int {
	s.mu.RLock()
	games := make([]*app.Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, g)
	}
	s.mu.RUnlock()

	removed := 0
	for _, g := range games {
		if now.Sub(g.LastAccess()) <= maxIdle {
			continue
		}
		s.mu.Lock()
		if s.games[g.PlayerID()] == g {
			delete(s.games, g.PlayerID())
			removed++
		}
		s.mu.Unlock()
		_ = s.client.Del(context.Background(), s.key(g.PlayerID())).Err()
	}
	return removed
}

// ActivePlayers counts live markers across all instances.
func (s *SessionStore) ActivePlayers(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "game:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

func (s *SessionStore) key(playerID string) string {
	return "game:session:" + playerID
}
