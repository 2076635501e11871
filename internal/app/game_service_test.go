package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"formula-trivia/internal/app"
	"formula-trivia/internal/domain"
	"formula-trivia/internal/infra/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	service *app.GameService
	results *memory.ResultStore
	clock   *fakeClock
}

func newFixture(t *testing.T, opts ...func(*fixtureConfig)) fixture {
	t.Helper()
	fc := fixtureConfig{pools: map[int][]domain.Question{}}
	for level := 1; level <= 5; level++ {
		fc.pools[level] = samplePool(level, 5)
	}
	for _, opt := range opts {
		opt(&fc)
	}

	levels := domain.DefaultLevels()
	for _, cfg := range levels.Ordered() {
		cfg.QuestionsToSelect = 3
		levels = levels.With(cfg)
	}
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	results := memory.NewResultStore()

	var questions app.QuestionRepository = memory.NewQuestionRepository(memory.NewStaticQuestionLoader(fc.pools), time.Minute)
	if fc.questions != nil {
		questions = fc.questions
	}
	var resultRepo app.ResultRepository = results
	if fc.results != nil {
		resultRepo = fc.results
	}

	service := app.NewGameService(memory.NewSessionStore(), questions, resultRepo, results,
		app.WithLevels(levels),
		app.WithClock(clock.Now),
		app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return fixture{service: service, results: results, clock: clock}
}

type fixtureConfig struct {
	pools     map[int][]domain.Question
	questions app.QuestionRepository
	results   app.ResultRepository
}

func samplePool(level, n int) []domain.Question {
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Question{
			ID:            fmt.Sprintf("l%d-q%d", level, i),
			Level:         level,
			Question:      fmt.Sprintf("Question %d?", i),
			CorrectAnswer: "right",
			WrongAnswers:  []string{"w1", "w2", "w3"},
		})
	}
	return out
}

// play answers each entry after advancing the clock by step.
func (f fixture) play(t *testing.T, playerID string, step time.Duration, answers ...string) app.AnswerOutcome {
	t.Helper()
	var (
		outcome app.AnswerOutcome
		err     error
	)
	for _, a := range answers {
		f.clock.Advance(step)
		if outcome, err = f.service.Answer(context.Background(), playerID, a); err != nil {
			t.Fatalf("answer %q: %v", a, err)
		}
	}
	return outcome
}

func TestPerfectLevelIsRecordedAndRanked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	updates, cancel := f.service.Subscribe(ctx)
	defer cancel()

	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	outcome := f.play(t, "p1", 10*time.Second, "right", "right", "right")

	if outcome.Result == nil {
		t.Fatalf("expected a level result")
	}
	if outcome.Result.Outcome != domain.OutcomePerfect || outcome.Result.LevelTime != 30*time.Second {
		t.Fatalf("unexpected result %+v", outcome.Result)
	}
	if !outcome.PersonalBest {
		t.Fatalf("first perfect run should be a personal best")
	}
	if got := f.results.Results("p1"); len(got) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(got))
	}

	select {
	case lb := <-updates:
		if lb.Level != 1 || len(lb.Entries) != 1 || lb.Entries[0].BestTime != 30*time.Second {
			t.Fatalf("unexpected leaderboard %+v", lb)
		}
	default:
		t.Fatalf("expected a leaderboard broadcast")
	}
}

func TestCurrentQuestionView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 2); err != nil {
		t.Fatalf("start: %v", err)
	}

	view, ok, err := f.service.CurrentQuestion(ctx, "p1")
	if err != nil || !ok {
		t.Fatalf("expected a current question, ok=%v err=%v", ok, err)
	}
	if view.Number != 1 || view.Total != 3 || len(view.Answers) != 4 {
		t.Fatalf("unexpected view %+v", view)
	}
	again, _, _ := f.service.CurrentQuestion(ctx, "p1")
	for i := range view.Answers {
		if view.Answers[i] != again.Answers[i] {
			t.Fatalf("answer order changed between calls: %v vs %v", view.Answers, again.Answers)
		}
	}

	f.play(t, "p1", time.Second, "right", "right", "right")
	if _, ok, err := f.service.CurrentQuestion(ctx, "p1"); ok || err != nil {
		t.Fatalf("expected no question after completion, ok=%v err=%v", ok, err)
	}
}

func TestNextLevelCarriesRunTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.play(t, "p1", 10*time.Second, "right", "right", "right")

	next, err := f.service.NextLevel(ctx, "p1")
	if err != nil {
		t.Fatalf("next level: %v", err)
	}
	if next.Level != 2 || next.CarriedTime != 30*time.Second || !next.IsPaused {
		t.Fatalf("unexpected next state %+v", next)
	}

	f.clock.Advance(time.Minute)
	if _, err := f.service.Resume(ctx, "p1"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	outcome := f.play(t, "p1", 5*time.Second, "right", "right", "right")
	r := outcome.Result
	if r == nil || r.LevelTime != 15*time.Second || r.TotalTime != 45*time.Second || r.RunStartLevel != 1 {
		t.Fatalf("unexpected level 2 result %+v", r)
	}
}

func TestNextLevelRequiresPerfectCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 3); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.NextLevel(ctx, "p1"); !errors.Is(err, domain.ErrLevelNotComplete) {
		t.Fatalf("expected ErrLevelNotComplete mid-level, got %v", err)
	}

	outcome := f.play(t, "p1", time.Second, "w1", "right", "right")
	if outcome.Result == nil || outcome.Result.Outcome != domain.OutcomeDNF || outcome.Result.PenaltyTime != time.Second {
		t.Fatalf("expected DNF with 1s penalty, got %+v", outcome.Result)
	}
	if outcome.PersonalBest {
		t.Fatalf("DNF cannot be a personal best")
	}
	if _, err := f.service.NextLevel(ctx, "p1"); !errors.Is(err, domain.ErrLevelNotComplete) {
		t.Fatalf("expected ErrLevelNotComplete after DNF, got %v", err)
	}
	if top, _ := f.results.Top(ctx, 3, 10); len(top) != 0 {
		t.Fatalf("DNF must not reach the leaderboard, got %+v", top)
	}
}

func TestNextLevelAfterFinalLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 5); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.play(t, "p1", time.Second, "right", "right", "right")
	if _, err := f.service.NextLevel(ctx, "p1"); !errors.Is(err, domain.ErrFinalLevel) {
		t.Fatalf("expected ErrFinalLevel, got %v", err)
	}
}

func TestRetryAfterElimination(t *testing.T) {
	f := newFixture(t, func(fc *fixtureConfig) { fc.pools[4] = samplePool(4, 6) })
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 4); err != nil {
		t.Fatalf("start: %v", err)
	}

	outcome := f.play(t, "p1", time.Second, "w1", "w2")
	if outcome.Result != nil {
		t.Fatalf("two wrong answers should not end the level")
	}
	outcome = f.play(t, "p1", time.Second, "w3")
	if outcome.Result == nil || outcome.Result.Outcome != domain.OutcomeEliminated {
		t.Fatalf("expected elimination, got %+v", outcome.Result)
	}
	// 3 x 1s plus the 5s first-wrong surcharge
	if outcome.Result.PenaltyTime != 8*time.Second {
		t.Fatalf("expected 8s penalty, got %v", outcome.Result.PenaltyTime)
	}
	if _, err := f.service.Answer(ctx, "p1", "right"); !errors.Is(err, domain.ErrNoCurrentQuestion) {
		t.Fatalf("expected ErrNoCurrentQuestion after elimination, got %v", err)
	}

	state, err := f.service.Retry(ctx, "p1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if state.Attempt != 2 || state.WrongAnswers != 0 || state.PenaltyTime != 0 || state.Terminal() {
		t.Fatalf("unexpected state after retry %+v", state)
	}
	outcome = f.play(t, "p1", time.Second, "right", "right", "right")
	if outcome.Result == nil || outcome.Result.Attempt != 2 || outcome.Result.Outcome != domain.OutcomePerfect {
		t.Fatalf("unexpected retry result %+v", outcome.Result)
	}
}

func TestPersonalBestOnlyWhenFaster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.play(t, "p1", 10*time.Second, "right", "right", "right")

	if _, err := f.service.Retry(ctx, "p1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	slower := f.play(t, "p1", 20*time.Second, "right", "right", "right")
	if slower.PersonalBest {
		t.Fatalf("slower run flagged as personal best")
	}

	if _, err := f.service.Retry(ctx, "p1"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	faster := f.play(t, "p1", 5*time.Second, "right", "right", "right")
	if !faster.PersonalBest {
		t.Fatalf("faster run not flagged as personal best")
	}

	lb, err := f.service.Leaderboard(ctx, 1, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].BestTime != 15*time.Second {
		t.Fatalf("expected best time 15s, got %+v", lb.Entries)
	}
}

func TestPauseFreezesTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.clock.Advance(4 * time.Second)
	if _, err := f.service.Pause(ctx, "p1"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	f.clock.Advance(time.Hour)
	state, err := f.service.State(ctx, "p1")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.IsPaused || state.CurrentTime != 4*time.Second {
		t.Fatalf("expected paused at 4s, got paused=%v time=%v", state.IsPaused, state.CurrentTime)
	}
}

func TestUnknownPlayerAndQuit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.Answer(ctx, "ghost", "right"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.service.Quit(ctx, "p1")
	if _, err := f.service.State(ctx, "p1"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound after quit, got %v", err)
	}
}

func TestStartLevelErrors(t *testing.T) {
	f := newFixture(t, func(fc *fixtureConfig) { delete(fc.pools, 2) })
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 0); !errors.Is(err, domain.ErrUnknownLevel) {
		t.Fatalf("expected ErrUnknownLevel, got %v", err)
	}
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 2); !errors.Is(err, domain.ErrQuestionsNotFound) {
		t.Fatalf("expected ErrQuestionsNotFound, got %v", err)
	}

	empty := newFixture(t, func(fc *fixtureConfig) { fc.questions = emptyQuestions{} })
	if _, err := empty.service.StartLevel(ctx, "p1", "Alice", 1); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestStorageFailureDoesNotFailAnswer(t *testing.T) {
	f := newFixture(t, func(fc *fixtureConfig) { fc.results = failingResults{} })
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	outcome := f.play(t, "p1", time.Second, "right", "right", "right")
	if outcome.Result == nil || outcome.PersonalBest {
		t.Fatalf("expected result without personal best, got %+v", outcome)
	}
}

type emptyQuestions struct{}

func (emptyQuestions) QuestionsForLevel(context.Context, int) ([]domain.Question, error) {
	return nil, nil
}

type failingResults struct{}

func (failingResults) SaveResult(context.Context, domain.LevelResult) error {
	return errors.New("db down")
}

func (failingResults) PersonalBest(context.Context, string, int) (time.Duration, bool, error) {
	return 0, false, errors.New("db down")
}

func TestAnswersRefusedWhilePaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.service.Pause(ctx, "p1"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	for i := 0; i < 3; i++ {
		f.clock.Advance(time.Minute)
		if _, err := f.service.Answer(ctx, "p1", "right"); !errors.Is(err, domain.ErrGamePaused) {
			t.Fatalf("expected ErrGamePaused, got %v", err)
		}
	}
	if _, ok, err := f.service.CurrentQuestion(ctx, "p1"); ok || err != nil {
		t.Fatalf("expected question withheld while paused, ok=%v err=%v", ok, err)
	}
	state, err := f.service.State(ctx, "p1")
	if err != nil || state.CurrentQuestionIndex != 0 || len(state.Questions) == 0 {
		t.Fatalf("paused answers must not advance the level, got %+v (%v)", state, err)
	}

	if _, err := f.service.Resume(ctx, "p1"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, ok, _ := f.service.CurrentQuestion(ctx, "p1"); !ok {
		t.Fatalf("expected question after resume")
	}
	outcome := f.play(t, "p1", 10*time.Second, "right", "right", "right")
	if outcome.Result == nil || outcome.Result.LevelTime != 30*time.Second {
		t.Fatalf("expected 30s level time, got %+v", outcome.Result)
	}
	if top, _ := f.results.Top(ctx, 1, 10); len(top) != 1 || top[0].BestTime != 30*time.Second {
		t.Fatalf("expected only the running time ranked, got %+v", top)
	}
}

func TestAdvancedLevelWaitsForResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.play(t, "p1", 10*time.Second, "right", "right", "right")
	if _, err := f.service.NextLevel(ctx, "p1"); err != nil {
		t.Fatalf("next level: %v", err)
	}
	if _, err := f.service.Answer(ctx, "p1", "right"); !errors.Is(err, domain.ErrGamePaused) {
		t.Fatalf("expected ErrGamePaused before resume, got %v", err)
	}
}

type hookedQuestions struct {
	inner  app.QuestionRepository
	onLoad func(level int)
}

func (h *hookedQuestions) QuestionsForLevel(ctx context.Context, level int) ([]domain.Question, error) {
	if h.onLoad != nil {
		h.onLoad(level)
	}
	return h.inner.QuestionsForLevel(ctx, level)
}

func TestNextLevelLoadsQuestionsWithoutHoldingGame(t *testing.T) {
	pools := map[int][]domain.Question{1: samplePool(1, 5), 2: samplePool(2, 5)}
	hooked := &hookedQuestions{inner: memory.NewQuestionRepository(memory.NewStaticQuestionLoader(pools), time.Minute)}
	f := newFixture(t, func(fc *fixtureConfig) { fc.questions = hooked })
	ctx := context.Background()

	if _, err := f.service.StartLevel(ctx, "p1", "Alice", 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	f.play(t, "p1", time.Second, "right", "right", "right")

	stateServed := false
	hooked.onLoad = func(level int) {
		if level != 2 {
			return
		}
		done := make(chan error, 1)
		go func() {
			_, err := f.service.State(ctx, "p1")
			done <- err
		}()
		select {
		case err := <-done:
			stateServed = err == nil
		case <-time.After(time.Second):
		}
	}

	next, err := f.service.NextLevel(ctx, "p1")
	if err != nil {
		t.Fatalf("next level: %v", err)
	}
	if next.Level != 2 {
		t.Fatalf("expected level 2, got %d", next.Level)
	}
	if !stateServed {
		t.Fatalf("state reads blocked while the next level loaded")
	}
}
