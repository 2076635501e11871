package domain

import "time"

// Question is a multiple-choice question with one correct and three wrong answers.
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Level         int      `json:"level" yaml:"level"`
	LevelName     string   `json:"levelName" yaml:"level_name"`
	Question      string   `json:"question" yaml:"question"`
	CorrectAnswer string   `json:"correctAnswer" yaml:"correct_answer"`
	WrongAnswers  []string `json:"wrongAnswers" yaml:"wrong_answers"`
	QuestionType  string   `json:"questionType" yaml:"question_type"`
}

// WrongAnswerCount is the number of distractors every question carries.
const WrongAnswerCount = 3

// Validate checks the shape of an imported question.
func (q Question) Validate() error {
	if q.ID == "" || q.Question == "" || q.CorrectAnswer == "" {
		return ErrInvalidQuestion
	}
	if len(q.WrongAnswers) != WrongAnswerCount {
		return ErrInvalidQuestion
	}
	return nil
}

// AnswerRecord captures a single submitted answer.
type AnswerRecord struct {
	QuestionID     string        `json:"questionId"`
	SelectedAnswer string        `json:"selectedAnswer"`
	CorrectAnswer  string        `json:"correctAnswer"`
	IsCorrect      bool          `json:"isCorrect"`
	TimeToAnswer   time.Duration `json:"timeToAnswer"`
}

// SessionState is a read-only snapshot of a level session.
type SessionState struct {
	Level                int           `json:"level"`
	LevelName            string        `json:"levelName"`
	Questions            []Question    `json:"-"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	TotalQuestions       int           `json:"totalQuestions"`
	CorrectAnswers       int           `json:"correctAnswers"`
	WrongAnswers         int           `json:"wrongAnswers"`
	MaxWrongAnswers      int           `json:"maxWrongAnswers"`
	StartTime            time.Time     `json:"startTime"`
	PenaltyCount         int           `json:"penaltyCount"`
	PenaltyTime          time.Duration `json:"penaltyTime"`
	AccumulatedTime      time.Duration `json:"accumulatedTime"`
	CarriedTime          time.Duration `json:"carriedTime"`
	IsPaused             bool          `json:"isPaused"`
	PausedAt             time.Time     `json:"pausedAt"`
	IsGameOver           bool          `json:"isGameOver"`
	IsLevelComplete      bool          `json:"isLevelComplete"`
	IsDNF                bool          `json:"isDNF"`
	Attempt              int           `json:"attempt"`
	CurrentTime          time.Duration `json:"currentTime"`
}

// Terminal reports whether the snapshot was taken after the session ended.
func (s SessionState) Terminal() bool {
	return s.IsGameOver || s.IsLevelComplete
}

// Outcome classifies how a level attempt ended.
type Outcome string

const (
	OutcomePerfect    Outcome = "perfect"
	OutcomeDNF        Outcome = "dnf"
	OutcomeEliminated Outcome = "eliminated"
)

// LevelResult is persisted once a level attempt reaches a terminal state.
type LevelResult struct {
	PlayerID       string        `json:"playerId"`
	DisplayName    string        `json:"displayName"`
	Level          int           `json:"level"`
	Attempt        int           `json:"attempt"`
	Outcome        Outcome       `json:"outcome"`
	CorrectAnswers int           `json:"correctAnswers"`
	WrongAnswers   int           `json:"wrongAnswers"`
	PenaltyTime    time.Duration `json:"penaltyTime"`
	LevelTime      time.Duration `json:"levelTime"`
	TotalTime      time.Duration `json:"totalTime"`
	RunStartLevel  int           `json:"runStartLevel"`
	CompletedAt    time.Time     `json:"completedAt"`
}

// LeaderboardEntry is one player's best time on a level.
type LeaderboardEntry struct {
	Rank        int           `json:"rank"`
	PlayerID    string        `json:"playerId"`
	DisplayName string        `json:"displayName"`
	BestTime    time.Duration `json:"bestTime"`
}

// Leaderboard captures the ordered best times for a level.
type Leaderboard struct {
	Level     int                `json:"level"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
