package engine

import (
	"math/rand"
	"time"

	"formula-trivia/internal/domain"
)

// Option customizes a Session at construction.
type Option func(*options)

type options struct {
	levels domain.LevelTable
	now    func() time.Time
	rnd    *rand.Rand
}

// WithLevels replaces the built-in level table, e.g. with admin-configured penalties.
func WithLevels(levels domain.LevelTable) Option {
	return func(o *options) {
		if levels != nil {
			o.levels = levels
		}
	}
}

// WithClock sets the wall clock; tests use it for deterministic timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRand sets the random source used for question and answer shuffling.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) {
		o.rnd = rnd
	}
}
