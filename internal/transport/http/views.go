package http

import (
	"math"
	"time"

	"formula-trivia/internal/app"
	"formula-trivia/internal/domain"
	"github.com/samber/lo"
)

// Durations go over the wire as seconds with millisecond precision.
func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

type sessionView struct {
	Level           int     `json:"level"`
	LevelName       string  `json:"levelName"`
	Attempt         int     `json:"attempt"`
	QuestionNumber  int     `json:"questionNumber"`
	TotalQuestions  int     `json:"totalQuestions"`
	CorrectAnswers  int     `json:"correctAnswers"`
	WrongAnswers    int     `json:"wrongAnswers"`
	RemainingLives  int     `json:"remainingLives"`
	PenaltyCount    int     `json:"penaltyCount"`
	PenaltyTime     float64 `json:"penaltyTime"`
	CarriedTime     float64 `json:"carriedTime"`
	CurrentTime     float64 `json:"currentTime"`
	IsPaused        bool    `json:"isPaused"`
	IsGameOver      bool    `json:"isGameOver"`
	IsLevelComplete bool    `json:"isLevelComplete"`
	IsDNF           bool    `json:"isDNF"`
}

func newSessionView(s domain.SessionState) sessionView {
	return sessionView{
		Level:           s.Level,
		LevelName:       s.LevelName,
		Attempt:         s.Attempt,
		QuestionNumber:  s.CurrentQuestionIndex + 1,
		TotalQuestions:  s.TotalQuestions,
		CorrectAnswers:  s.CorrectAnswers,
		WrongAnswers:    s.WrongAnswers,
		RemainingLives:  max(s.MaxWrongAnswers-s.WrongAnswers, 0),
		PenaltyCount:    s.PenaltyCount,
		PenaltyTime:     seconds(s.PenaltyTime),
		CarriedTime:     seconds(s.CarriedTime),
		CurrentTime:     seconds(s.CurrentTime),
		IsPaused:        s.IsPaused,
		IsGameOver:      s.IsGameOver,
		IsLevelComplete: s.IsLevelComplete,
		IsDNF:           s.IsDNF,
	}
}

type stateView struct {
	PlayerID string            `json:"playerId"`
	Session  *sessionView      `json:"session"`
	Question *app.QuestionView `json:"question"`
}

type answerView struct {
	QuestionID     string  `json:"questionId"`
	SelectedAnswer string  `json:"selectedAnswer"`
	CorrectAnswer  string  `json:"correctAnswer"`
	IsCorrect      bool    `json:"isCorrect"`
	TimeToAnswer   float64 `json:"timeToAnswer"`
	PenaltyTime    float64 `json:"penaltyTime"`
	RemainingLives int     `json:"remainingLives"`
}

func newAnswerView(o app.AnswerOutcome) answerView {
	return answerView{
		QuestionID:     o.Record.QuestionID,
		SelectedAnswer: o.Record.SelectedAnswer,
		CorrectAnswer:  o.Record.CorrectAnswer,
		IsCorrect:      o.Record.IsCorrect,
		TimeToAnswer:   seconds(o.Record.TimeToAnswer),
		PenaltyTime:    seconds(o.State.PenaltyTime),
		RemainingLives: max(o.State.MaxWrongAnswers-o.State.WrongAnswers, 0),
	}
}

type levelResultView struct {
	Level          int            `json:"level"`
	Attempt        int            `json:"attempt"`
	Outcome        domain.Outcome `json:"outcome"`
	CorrectAnswers int            `json:"correctAnswers"`
	WrongAnswers   int            `json:"wrongAnswers"`
	PenaltyTime    float64        `json:"penaltyTime"`
	LevelTime      float64        `json:"levelTime"`
	TotalTime      float64        `json:"totalTime"`
	PersonalBest   bool           `json:"personalBest"`
	CanAdvance     bool           `json:"canAdvance"`
}

func newLevelResultView(r domain.LevelResult, personalBest bool, maxLevel int) levelResultView {
	return levelResultView{
		Level:          r.Level,
		Attempt:        r.Attempt,
		Outcome:        r.Outcome,
		CorrectAnswers: r.CorrectAnswers,
		WrongAnswers:   r.WrongAnswers,
		PenaltyTime:    seconds(r.PenaltyTime),
		LevelTime:      seconds(r.LevelTime),
		TotalTime:      seconds(r.TotalTime),
		PersonalBest:   personalBest,
		CanAdvance:     r.Outcome == domain.OutcomePerfect && r.Level < maxLevel,
	}
}

type leaderboardEntryView struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"playerId"`
	DisplayName string  `json:"displayName"`
	BestTime    float64 `json:"bestTime"`
}

type leaderboardView struct {
	Level     int                    `json:"level"`
	Entries   []leaderboardEntryView `json:"entries"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

func newLeaderboardView(lb domain.Leaderboard) leaderboardView {
	return leaderboardView{
		Level: lb.Level,
		Entries: lo.Map(lb.Entries, func(e domain.LeaderboardEntry, _ int) leaderboardEntryView {
			return leaderboardEntryView{
				Rank:        e.Rank,
				PlayerID:    e.PlayerID,
				DisplayName: e.DisplayName,
				BestTime:    seconds(e.BestTime),
			}
		}),
		UpdatedAt: lb.UpdatedAt,
	}
}

type levelView struct {
	Level           int     `json:"level"`
	Name            string  `json:"name"`
	Questions       int     `json:"questions"`
	MaxWrongAnswers int     `json:"maxWrongAnswers"`
	HasPenalties    bool    `json:"hasPenalties"`
	PenaltyPerWrong float64 `json:"penaltyPerWrong"`
	FirstWrong      float64 `json:"firstWrongSurcharge"`
}

func newLevelViews(levels []domain.LevelConfig) []levelView {
	return lo.Map(levels, func(c domain.LevelConfig, _ int) levelView {
		return levelView{
			Level:           c.Level,
			Name:            c.Name,
			Questions:       c.QuestionsToSelect,
			MaxWrongAnswers: c.MaxWrongAnswers,
			HasPenalties:    c.HasPenalties,
			PenaltyPerWrong: seconds(c.PenaltyPerWrong),
			FirstWrong:      seconds(c.FirstWrongSurcharge),
		}
	})
}
