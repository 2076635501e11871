package domain

import (
	"fmt"
	"sort"
	"time"
)

// LevelConfig holds the static rules of one difficulty level.
type LevelConfig struct {
	Level               int           `json:"level"`
	Name                string        `json:"name"`
	QuestionsToSelect   int           `json:"questionsToSelect"`
	MaxWrongAnswers     int           `json:"maxWrongAnswers"`
	HasPenalties        bool          `json:"hasPenalties"`
	PenaltyPerWrong     time.Duration `json:"penaltyPerWrong"`
	FirstWrongSurcharge time.Duration `json:"firstWrongSurcharge"`
}

// LevelTable maps level numbers to their configuration.
type LevelTable map[int]LevelConfig

const (
	DefaultQuestionsPerLevel = 25
	DefaultMaxWrongAnswers   = 3
)

// DefaultLevels returns the five built-in levels.
func DefaultLevels() LevelTable {
	return LevelTable{
		1: {Level: 1, Name: "Formation Lap", QuestionsToSelect: DefaultQuestionsPerLevel, MaxWrongAnswers: DefaultMaxWrongAnswers},
		2: {Level: 2, Name: "Free Practice", QuestionsToSelect: DefaultQuestionsPerLevel, MaxWrongAnswers: DefaultMaxWrongAnswers},
		3: {Level: 3, Name: "Qualifying", QuestionsToSelect: DefaultQuestionsPerLevel, MaxWrongAnswers: DefaultMaxWrongAnswers,
			HasPenalties: true, PenaltyPerWrong: time.Second},
		4: {Level: 4, Name: "Grand Prix", QuestionsToSelect: DefaultQuestionsPerLevel, MaxWrongAnswers: DefaultMaxWrongAnswers,
			HasPenalties: true, PenaltyPerWrong: time.Second, FirstWrongSurcharge: 5 * time.Second},
		5: {Level: 5, Name: "World Championship", QuestionsToSelect: DefaultQuestionsPerLevel, MaxWrongAnswers: DefaultMaxWrongAnswers,
			HasPenalties: true, PenaltyPerWrong: time.Second, FirstWrongSurcharge: 10 * time.Second},
	}
}

// Lookup returns the configuration for level or ErrUnknownLevel.
func (t LevelTable) Lookup(level int) (LevelConfig, error) {
	cfg, ok := t[level]
	if !ok {
		return LevelConfig{}, fmt.Errorf("level %d: %w", level, ErrUnknownLevel)
	}
	return cfg, nil
}

// With returns a copy of the table with cfg replacing its level's entry.
func (t LevelTable) With(cfg LevelConfig) LevelTable {
	out := make(LevelTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out[cfg.Level] = cfg
	return out
}

// Ordered returns the configurations sorted by level number.
func (t LevelTable) Ordered() []LevelConfig {
	out := make([]LevelConfig, 0, len(t))
	for _, cfg := range t {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// MaxLevel is the highest configured level number.
func (t LevelTable) MaxLevel() int {
	max := 0
	for level := range t {
		if level > max {
			max = level
		}
	}
	return max
}
