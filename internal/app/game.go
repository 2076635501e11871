package app

import (
	"sync"
	"time"

	"formula-trivia/internal/domain"
	"formula-trivia/internal/engine"
)

// Game is one player's active game. All access to the engine session goes
// through the game mutex.
type Game struct {
	playerID    string
	displayName string
	createdAt   time.Time

	mu            sync.Mutex
	session       *engine.Session
	runStartLevel int
	recorded      bool
	lastAccess    time.Time
}

// NewGame is exported for infrastructure layers that need to seed games.
func NewGame(playerID, displayName string) *Game {
	now := time.Now()
	return &Game{
		playerID:    playerID,
		displayName: displayName,
		createdAt:   now,
		lastAccess:  now,
	}
}

// PlayerID returns the owning player.
func (g *Game) PlayerID() string {
	return g.playerID
}

// LastAccess returns when the game was last touched.
func (g *Game) LastAccess() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastAccess
}

// Snapshot returns the current session state, if a level is in progress.
func (g *Game) Snapshot() (domain.SessionState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return domain.SessionState{}, false
	}
	return g.session.State(), true
}

func (g *Game) touchLocked(now time.Time) {
	g.lastAccess = now
}

// resultLocked builds the persisted result for a terminal session.
func (g *Game) resultLocked(now time.Time) (domain.LevelResult, bool) {
	outcome, ok := g.session.Outcome()
	if !ok {
		return domain.LevelResult{}, false
	}
	state := g.session.State()
	return domain.LevelResult{
		PlayerID:       g.playerID,
		DisplayName:    g.displayName,
		Level:          state.Level,
		Attempt:        state.Attempt,
		Outcome:        outcome,
		CorrectAnswers: state.CorrectAnswers,
		WrongAnswers:   state.WrongAnswers,
		PenaltyTime:    state.PenaltyTime,
		LevelTime:      g.session.LevelFinalTime(),
		TotalTime:      g.session.FinalTime(),
		RunStartLevel:  g.runStartLevel,
		CompletedAt:    now,
	}, true
}
