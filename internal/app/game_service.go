package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"formula-trivia/internal/domain"
	"formula-trivia/internal/engine"
)

// SessionRepository abstracts where active games live (in-memory, Redis, etc).
type SessionRepository interface {
	Get(playerID string) (*Game, bool)
	Put(game *Game)
	Delete(playerID string)
}

// QuestionRepository loads the question pool of a level (from cache/backing store).
type QuestionRepository interface {
	QuestionsForLevel(ctx context.Context, level int) ([]domain.Question, error)
}

// ResultRepository persists terminal level results.
type ResultRepository interface {
	SaveResult(ctx context.Context, result domain.LevelResult) error
	PersonalBest(ctx context.Context, playerID string, level int) (time.Duration, bool, error)
}

// LeaderboardRepository ranks perfect completions per level.
type LeaderboardRepository interface {
	Submit(ctx context.Context, result domain.LevelResult) error
	Top(ctx context.Context, level, limit int) ([]domain.LeaderboardEntry, error)
}

// DefaultLeaderboardSize is the number of entries broadcast after an update.
const DefaultLeaderboardSize = 10

// QuestionView is what a player sees of the current question.
type QuestionView struct {
	ID           string   `json:"id"`
	Level        int      `json:"level"`
	Question     string   `json:"question"`
	QuestionType string   `json:"questionType"`
	Answers      []string `json:"answers"`
	Number       int      `json:"number"`
	Total        int      `json:"total"`
}

// AnswerOutcome summarizes a submitted answer.
type AnswerOutcome struct {
	Record       domain.AnswerRecord `json:"record"`
	State        domain.SessionState `json:"state"`
	Result       *domain.LevelResult `json:"result,omitempty"`
	PersonalBest bool                `json:"personalBest"`
}

// GameService contains the game use cases.
type GameService struct {
	sessions    SessionRepository
	questions   QuestionRepository
	results     ResultRepository
	leaderboard LeaderboardRepository
	levels      domain.LevelTable
	logger      *slog.Logger
	now         func() time.Time
	hub         *leaderboardHub
}

// ServiceOption customizes a GameService.
type ServiceOption func(*GameService)

// WithLevels sets the level table sessions are built with.
func WithLevels(levels domain.LevelTable) ServiceOption {
	return func(s *GameService) {
		if levels != nil {
			s.levels = levels
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *GameService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock is used by tests for deterministic timing.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *GameService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewGameService(sessions SessionRepository, questions QuestionRepository, results ResultRepository, leaderboard LeaderboardRepository, opts ...ServiceOption) *GameService {
	s := &GameService{
		sessions:    sessions,
		questions:   questions,
		results:     results,
		leaderboard: leaderboard,
		levels:      domain.DefaultLevels(),
		logger:      slog.Default(),
		now:         time.Now,
		hub:         newLeaderboardHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Levels returns the level table in play.
func (s *GameService) Levels() []domain.LevelConfig {
	return s.levels.Ordered()
}

// MaxLevel is the last level of a run.
func (s *GameService) MaxLevel() int {
	return s.levels.MaxLevel()
}

// StartLevel begins a new run for the player at level.
func (s *GameService) StartLevel(ctx context.Context, playerID, displayName string, level int) (domain.SessionState, error) {
	session, err := s.newSession(ctx, level, 0)
	if err != nil {
		return domain.SessionState{}, err
	}

	game, ok := s.sessions.Get(playerID)
	if !ok {
		game = NewGame(playerID, displayName)
	}

	game.mu.Lock()
	defer game.mu.Unlock()
	if displayName != "" {
		game.displayName = displayName
	}
	game.session = session
	game.runStartLevel = level
	game.recorded = false
	game.touchLocked(s.now())
	s.sessions.Put(game)

	s.logger.Info("level started", "player", playerID, "level", level, "questions", session.State().TotalQuestions)
	return session.State(), nil
}

func (s *GameService) newSession(ctx context.Context, level int, carried time.Duration) (*engine.Session, error) {
	questions, err := s.loadPool(ctx, level)
	if err != nil {
		return nil, err
	}
	return s.buildSession(level, questions, carried)
}

// loadPool fetches the question pool of level. It does repository I/O and
// must not run under a game lock.
func (s *GameService) loadPool(ctx context.Context, level int) ([]domain.Question, error) {
	if _, err := s.levels.Lookup(level); err != nil {
		return nil, err
	}
	questions, err := s.questions.QuestionsForLevel(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("level %d: %w", level, domain.ErrNoQuestions)
	}
	return questions, nil
}

func (s *GameService) buildSession(level int, questions []domain.Question, carried time.Duration) (*engine.Session, error) {
	return engine.New(level, questions, carried, engine.WithLevels(s.levels), engine.WithClock(s.now))
}

// withGame runs fn with the player's game locked.
func (s *GameService) withGame(playerID string, fn func(g *Game) error) error {
	game, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.ErrGameNotFound
	}
	game.mu.Lock()
	defer game.mu.Unlock()
	if game.session == nil {
		return domain.ErrGameNotFound
	}
	game.touchLocked(s.now())
	return fn(game)
}

// State returns the player's current session snapshot.
func (s *GameService) State(_ context.Context, playerID string) (domain.SessionState, error) {
	var state domain.SessionState
	err := s.withGame(playerID, func(g *Game) error {
		state = g.session.State()
		return nil
	})
	return state, err
}

// CurrentQuestion returns the question awaiting an answer with its answer order.
// Nothing is shown while the game is paused.
func (s *GameService) CurrentQuestion(_ context.Context, playerID string) (QuestionView, bool, error) {
	var (
		view QuestionView
		ok   bool
	)
	err := s.withGame(playerID, func(g *Game) error {
		if g.session.IsPaused() {
			return nil
		}
		q, has := g.session.CurrentQuestion()
		if !has {
			return nil
		}
		_, total := g.session.Progress()
		view = QuestionView{
			ID:           q.ID,
			Level:        g.session.Level(),
			Question:     q.Question,
			QuestionType: q.QuestionType,
			Answers:      g.session.ShuffledAnswers(),
			Number:       g.session.State().CurrentQuestionIndex + 1,
			Total:        total,
		}
		ok = true
		return nil
	})
	return view, ok, err
}

// Answer submits the player's answer. Answers are refused while paused since
// the clock is stopped. Terminal attempts are persisted and perfect ones are
// ranked on the leaderboard.
func (s *GameService) Answer(ctx context.Context, playerID, selected string) (AnswerOutcome, error) {
	var (
		outcome AnswerOutcome
		result  domain.LevelResult
		final   bool
	)
	err := s.withGame(playerID, func(g *Game) error {
		if g.session.IsPaused() && !g.session.IsTerminal() {
			return domain.ErrGamePaused
		}
		record, err := g.session.SubmitAnswer(selected)
		if err != nil {
			return err
		}
		outcome.Record = record
		outcome.State = g.session.State()
		if g.recorded {
			return nil
		}
		result, final = g.resultLocked(s.now())
		if final {
			g.recorded = true
			if result.Outcome != domain.OutcomePerfect {
				// a broken run restarts from this level on retry
				g.runStartLevel = result.Level
			}
		}
		return nil
	})
	if err != nil {
		return AnswerOutcome{}, err
	}
	if final {
		outcome.Result = &result
		outcome.PersonalBest = s.recordResult(ctx, result)
	}
	return outcome, nil
}

// recordResult persists a terminal result. Storage failures are logged; the
// game state itself is already final.
func (s *GameService) recordResult(ctx context.Context, result domain.LevelResult) bool {
	log := s.logger.With("player", result.PlayerID, "level", result.Level, "outcome", result.Outcome)

	personalBest := false
	if result.Outcome == domain.OutcomePerfect {
		best, had, err := s.results.PersonalBest(ctx, result.PlayerID, result.Level)
		if err != nil {
			log.Error("load personal best", "error", err)
		}
		personalBest = err == nil && (!had || result.LevelTime < best)
	}

	if err := s.results.SaveResult(ctx, result); err != nil {
		log.Error("save result", "error", err)
	}
	log.Info("level finished", "level_time", result.LevelTime, "total_time", result.TotalTime, "personal_best", personalBest)

	if result.Outcome != domain.OutcomePerfect {
		return personalBest
	}
	if err := s.leaderboard.Submit(ctx, result); err != nil {
		log.Error("submit leaderboard", "error", err)
		return personalBest
	}
	lb, err := s.Leaderboard(ctx, result.Level, DefaultLeaderboardSize)
	if err != nil {
		log.Error("refresh leaderboard", "error", err)
		return personalBest
	}
	s.hub.broadcast(lb)
	return personalBest
}

// Pause freezes the player's clock.
func (s *GameService) Pause(_ context.Context, playerID string) (domain.SessionState, error) {
	var state domain.SessionState
	err := s.withGame(playerID, func(g *Game) error {
		g.session.Pause()
		state = g.session.State()
		return nil
	})
	return state, err
}

// Resume restarts the player's clock.
func (s *GameService) Resume(_ context.Context, playerID string) (domain.SessionState, error) {
	var state domain.SessionState
	err := s.withGame(playerID, func(g *Game) error {
		g.session.Resume()
		state = g.session.State()
		return nil
	})
	return state, err
}

// Retry restarts the current level as a new attempt.
func (s *GameService) Retry(_ context.Context, playerID string) (domain.SessionState, error) {
	var state domain.SessionState
	err := s.withGame(playerID, func(g *Game) error {
		g.session.Reset()
		g.runStartLevel = g.session.Level()
		g.recorded = false
		state = g.session.State()
		return nil
	})
	if err == nil {
		s.logger.Info("level retried", "player", playerID, "level", state.Level, "attempt", state.Attempt)
	}
	return state, err
}

// NextLevel continues a perfect run on the following level. The run time so
// far is carried into the new session, which starts paused.
func (s *GameService) NextLevel(ctx context.Context, playerID string) (domain.SessionState, error) {
	game, ok := s.sessions.Get(playerID)
	if !ok {
		return domain.SessionState{}, domain.ErrGameNotFound
	}

	game.mu.Lock()
	current := game.session
	next, err := s.nextLevelLocked(current)
	game.mu.Unlock()
	if err != nil {
		return domain.SessionState{}, err
	}

	questions, err := s.loadPool(ctx, next)
	if err != nil {
		return domain.SessionState{}, err
	}

	game.mu.Lock()
	defer game.mu.Unlock()
	// the game may have been retried or restarted while the pool loaded
	if game.session != current || !current.IsPerfect() {
		return domain.SessionState{}, domain.ErrLevelNotComplete
	}
	session, err := s.buildSession(next, questions, current.FinalTime())
	if err != nil {
		return domain.SessionState{}, err
	}
	game.session = session
	game.recorded = false
	game.touchLocked(s.now())

	s.logger.Info("level advanced", "player", playerID, "level", next, "carried", session.State().CarriedTime)
	return session.State(), nil
}

func (s *GameService) nextLevelLocked(current *engine.Session) (int, error) {
	if current == nil {
		return 0, domain.ErrGameNotFound
	}
	if !current.IsPerfect() {
		return 0, domain.ErrLevelNotComplete
	}
	next := current.Level() + 1
	if next > s.levels.MaxLevel() {
		return 0, domain.ErrFinalLevel
	}
	return next, nil
}

// Quit drops the player's game.
func (s *GameService) Quit(_ context.Context, playerID string) {
	s.sessions.Delete(playerID)
}

// Leaderboard returns the best perfect times for level.
func (s *GameService) Leaderboard(ctx context.Context, level, limit int) (domain.Leaderboard, error) {
	if _, err := s.levels.Lookup(level); err != nil {
		return domain.Leaderboard{}, err
	}
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	entries, err := s.leaderboard.Top(ctx, level, limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard: %w", err)
	}
	return domain.Leaderboard{
		Level:     level,
		Entries:   entries,
		UpdatedAt: s.now(),
	}, nil
}

// Subscribe returns a channel that receives leaderboard updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context) (<-chan domain.Leaderboard, func()) {
	return s.hub.subscribe()
}
