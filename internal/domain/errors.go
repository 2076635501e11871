package domain

import "errors"

var (
	// ErrUnknownLevel is returned when a level number has no configuration.
	ErrUnknownLevel = errors.New("unknown level")
	// ErrNoCurrentQuestion is returned when an answer arrives for a terminal or exhausted session.
	ErrNoCurrentQuestion = errors.New("no current question")
	// ErrGameNotFound is returned when a player has no active game.
	ErrGameNotFound = errors.New("game not found")
	// ErrNoQuestions indicates the question pool for a level is empty.
	ErrNoQuestions = errors.New("no questions available for level")
	// ErrQuestionsNotFound indicates the question content could not be loaded.
	ErrQuestionsNotFound = errors.New("questions not found")
	// ErrLevelNotComplete is returned when advancing before a perfect completion.
	ErrLevelNotComplete = errors.New("level not completed perfectly")
	// ErrFinalLevel is returned when advancing past the last level.
	ErrFinalLevel = errors.New("already at final level")
	// ErrGamePaused is returned when an answer arrives while the clock is stopped.
	ErrGamePaused = errors.New("game is paused")
	// ErrInvalidQuestion is returned by imports for malformed question records.
	ErrInvalidQuestion = errors.New("invalid question")
)
