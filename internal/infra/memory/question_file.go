package memory

import (
	"fmt"
	"os"

	"formula-trivia/internal/domain"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// QuestionFile is the YAML layout of a question pack.
type QuestionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadQuestionFile reads a YAML question pack and groups it by level.
func LoadQuestionFile(path string) (map[int][]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes and validates a YAML question pack.
func ParseQuestions(data []byte) (map[int][]domain.Question, error) {
	var file QuestionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	for i, q := range file.Questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d (%q): %w", i, q.ID, err)
		}
	}
	return lo.GroupBy(file.Questions, func(q domain.Question) int { return q.Level }), nil
}
