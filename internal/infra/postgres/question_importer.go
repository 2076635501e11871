package postgres

import (
	"context"
	"fmt"

	"formula-trivia/internal/domain"
	"github.com/samber/lo"
	"github.com/uptrace/bun"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID            string   `bun:"id,pk"`
	Level         int      `bun:"level,notnull"`
	LevelName     string   `bun:"level_name,notnull"`
	Question      string   `bun:"question,notnull"`
	CorrectAnswer string   `bun:"correct_answer,notnull"`
	WrongAnswers  []string `bun:"wrong_answers,array"`
	QuestionType  string   `bun:"question_type,notnull"`
}

// QuestionImporter upserts question packs.
type QuestionImporter struct {
	db *bun.DB
}

func NewQuestionImporter(db *bun.DB) *QuestionImporter {
	return &QuestionImporter{db: db}
}

// Import validates and upserts questions, returning how many were written.
func (i *QuestionImporter) Import(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return 0, fmt.Errorf("question %q: %w", q.ID, err)
		}
	}
	rows := lo.Map(questions, func(q domain.Question, _ int) questionRow {
		return questionRow{
			ID:            q.ID,
			Level:         q.Level,
			LevelName:     q.LevelName,
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			WrongAnswers:  q.WrongAnswers,
			QuestionType:  q.QuestionType,
		}
	})
	_, err := i.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("level = EXCLUDED.level").
		Set("level_name = EXCLUDED.level_name").
		Set("question = EXCLUDED.question").
		Set("correct_answer = EXCLUDED.correct_answer").
		Set("wrong_answers = EXCLUDED.wrong_answers").
		Set("question_type = EXCLUDED.question_type").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("import questions: %w", err)
	}
	return len(rows), nil
}
