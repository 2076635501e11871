// Package engine implements the level session state machine: question
// sampling, answer evaluation, penalties and pause-aware timing.
//
// A Session is owned by a single caller and is not safe for concurrent use.
package engine

import (
	"fmt"
	"math/rand"
	"time"

	"formula-trivia/internal/domain"
	"github.com/samber/lo"
)

// Session tracks one attempt at one level.
type Session struct {
	cfg       domain.LevelConfig
	questions []domain.Question
	now       func() time.Time
	rnd       *rand.Rand

	index         int
	correct       int
	wrong         int
	startTime     time.Time
	segmentStart  time.Time
	accumulated   time.Duration
	carried       time.Duration
	penaltyCount  int
	penaltyTime   time.Duration
	paused        bool
	pausedAt      time.Time
	gameOver      bool
	levelComplete bool
	dnf           bool
	attempt       int
	answers       []domain.AnswerRecord

	// answer order for the question at orderIndex
	order      []string
	orderIndex int
}

// New builds a session for level from the candidate questions. A positive
// carried time (from a perfect previous level) starts the session paused.
func New(level int, questions []domain.Question, carried time.Duration, opts ...Option) (*Session, error) {
	o := options{levels: domain.DefaultLevels(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	cfg, err := o.levels.Lookup(level)
	if err != nil {
		return nil, err
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(o.now().UnixNano()))
	}
	if carried < 0 {
		carried = 0
	}

	s := &Session{
		cfg:     cfg,
		now:     o.now,
		rnd:     o.rnd,
		attempt: 1,
	}
	s.questions = selectQuestions(questions, cfg.QuestionsToSelect, s.rnd)
	s.start(carried)
	return s, nil
}

// selectQuestions drops duplicate ids, shuffles and truncates to count.
func selectQuestions(pool []domain.Question, count int, rnd *rand.Rand) []domain.Question {
	unique := lo.UniqBy(pool, func(q domain.Question) string { return q.ID })
	shuffled := make([]domain.Question, len(unique))
	copy(shuffled, unique)

	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count > 0 && count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled
}

func (s *Session) start(carried time.Duration) {
	now := s.now()
	s.index = 0
	s.correct = 0
	s.wrong = 0
	s.startTime = now
	s.segmentStart = now
	s.carried = carried
	s.accumulated = carried
	s.penaltyCount = 0
	s.penaltyTime = 0
	s.paused = carried > 0
	s.pausedAt = time.Time{}
	if s.paused {
		s.pausedAt = now
	}
	s.gameOver = false
	s.levelComplete = false
	s.dnf = false
	s.answers = nil
	s.order = nil
}

// Level returns the level number of the session.
func (s *Session) Level() int { return s.cfg.Level }

// Config returns the level rules the session plays under.
func (s *Session) Config() domain.LevelConfig { return s.cfg }

// CurrentQuestion returns the question awaiting an answer, if any.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if s.IsTerminal() || s.index >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.index], true
}

// ShuffledAnswers returns the correct answer and the distractors of the
// current question in random order. The order is drawn once per question and
// repeated on later calls until the session moves on.
func (s *Session) ShuffledAnswers() []string {
	q, ok := s.CurrentQuestion()
	if !ok {
		return nil
	}
	if s.order == nil || s.orderIndex != s.index {
		order := make([]string, 0, 1+len(q.WrongAnswers))
		order = append(order, q.CorrectAnswer)
		order = append(order, q.WrongAnswers...)
		s.rnd.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		s.order = order
		s.orderIndex = s.index
	}
	return append([]string(nil), s.order...)
}

// SubmitAnswer evaluates selected against the current question.
func (s *Session) SubmitAnswer(selected string) (domain.AnswerRecord, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return domain.AnswerRecord{}, fmt.Errorf("level %d index %d: %w", s.cfg.Level, s.index, domain.ErrNoCurrentQuestion)
	}

	record := domain.AnswerRecord{
		QuestionID:     q.ID,
		SelectedAnswer: selected,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      selected == q.CorrectAnswer,
		TimeToAnswer:   s.runningDelta(s.now()),
	}
	s.answers = append(s.answers, record)

	if record.IsCorrect {
		s.correct++
		s.advance()
		return record, nil
	}

	s.wrong++
	s.applyPenalty()
	if s.wrong >= s.cfg.MaxWrongAnswers {
		s.finalize(true)
		return record, nil
	}
	s.advance()
	return record, nil
}

func (s *Session) applyPenalty() {
	if !s.cfg.HasPenalties {
		return
	}
	s.penaltyCount++
	s.penaltyTime += s.cfg.PenaltyPerWrong
	if s.wrong == 1 {
		s.penaltyTime += s.cfg.FirstWrongSurcharge
	}
}

func (s *Session) advance() {
	s.index++
	s.order = nil
	if s.index >= len(s.questions) {
		s.finalize(false)
	}
}

func (s *Session) finalize(eliminated bool) {
	s.Pause()
	if eliminated {
		s.gameOver = true
		s.dnf = true
		return
	}
	s.levelComplete = true
	s.dnf = s.wrong > 0
}

// Pause freezes the clock. It is a no-op when already paused.
func (s *Session) Pause() {
	if s.paused {
		return
	}
	now := s.now()
	s.accumulated += s.runningDelta(now)
	s.paused = true
	s.pausedAt = now
}

// Resume restarts the clock from the accumulated total. It is a no-op when
// running or when the session has already ended.
func (s *Session) Resume() {
	if !s.paused || s.IsTerminal() {
		return
	}
	s.paused = false
	s.segmentStart = s.now()
	s.pausedAt = time.Time{}
}

func (s *Session) runningDelta(now time.Time) time.Duration {
	if s.paused {
		return 0
	}
	if d := now.Sub(s.segmentStart); d > 0 {
		return d
	}
	return 0
}

// CurrentTime returns the elapsed run time including carried-over time.
func (s *Session) CurrentTime() time.Duration {
	return s.accumulated + s.runningDelta(s.now())
}

// FinalTime returns the run time including carried-over time plus penalties.
func (s *Session) FinalTime() time.Duration {
	return s.CurrentTime() + s.penaltyTime
}

// LevelFinalTime returns this level's own time plus penalties, excluding
// time carried over from earlier levels.
func (s *Session) LevelFinalTime() time.Duration {
	return s.CurrentTime() - s.carried + s.penaltyTime
}

// Reset starts a fresh attempt on the same questions. Carried-over time is
// dropped.
func (s *Session) Reset() {
	s.attempt++
	s.start(0)
}

// IsPaused reports whether the clock is stopped.
func (s *Session) IsPaused() bool {
	return s.paused
}

// IsTerminal reports whether the session was eliminated or completed.
func (s *Session) IsTerminal() bool {
	return s.gameOver || s.levelComplete
}

// IsPerfect reports a completion without wrong answers.
func (s *Session) IsPerfect() bool {
	return s.levelComplete && !s.dnf
}

// Outcome classifies a terminal session. ok is false while still playing.
func (s *Session) Outcome() (outcome domain.Outcome, ok bool) {
	switch {
	case s.gameOver:
		return domain.OutcomeEliminated, true
	case s.IsPerfect():
		return domain.OutcomePerfect, true
	case s.levelComplete:
		return domain.OutcomeDNF, true
	}
	return "", false
}

// Progress returns the number of answered questions and the level total.
func (s *Session) Progress() (answered, total int) {
	return len(s.answers), len(s.questions)
}

// RemainingLives is the number of wrong answers left before elimination.
func (s *Session) RemainingLives() int {
	return max(s.cfg.MaxWrongAnswers-s.wrong, 0)
}

// Answers returns a copy of the recorded answers.
func (s *Session) Answers() []domain.AnswerRecord {
	return append([]domain.AnswerRecord(nil), s.answers...)
}

// State returns a snapshot of the session.
func (s *Session) State() domain.SessionState {
	return domain.SessionState{
		Level:                s.cfg.Level,
		LevelName:            s.cfg.Name,
		Questions:            append([]domain.Question(nil), s.questions...),
		CurrentQuestionIndex: s.index,
		TotalQuestions:       len(s.questions),
		CorrectAnswers:       s.correct,
		WrongAnswers:         s.wrong,
		MaxWrongAnswers:      s.cfg.MaxWrongAnswers,
		StartTime:            s.startTime,
		PenaltyCount:         s.penaltyCount,
		PenaltyTime:          s.penaltyTime,
		AccumulatedTime:      s.accumulated,
		CarriedTime:          s.carried,
		IsPaused:             s.paused,
		PausedAt:             s.pausedAt,
		IsGameOver:           s.gameOver,
		IsLevelComplete:      s.levelComplete,
		IsDNF:                s.dnf,
		Attempt:              s.attempt,
		CurrentTime:          s.CurrentTime(),
	}
}
