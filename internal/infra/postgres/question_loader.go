package postgres

import (
	"context"
	"fmt"

	"formula-trivia/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads level question pools from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context, level int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, level, level_name, question, correct_answer, wrong_answers, question_type
		FROM questions
		WHERE level = $1
		ORDER BY id`, level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Level, &q.LevelName, &q.Question, &q.CorrectAnswer, &q.WrongAnswers, &q.QuestionType); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("level %d: %w", level, domain.ErrQuestionsNotFound)
	}
	return questions, nil
}
