package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"formula-trivia/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches a level's question pool from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, level int) ([]domain.Question, error)
}

// QuestionRepository caches question pools with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[int]cachedPool
}

type cachedPool struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedPool),
	}
}

func (r *QuestionRepository) QuestionsForLevel(ctx context.Context, level int) ([]domain.Question, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[level]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.questions, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(strconv.Itoa(level), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[level]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadQuestions(ctx, level)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[level] = cachedPool{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitterLocked()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops a cached pool, e.g. after an import.
func (r *QuestionRepository) Invalidate(level int) {
	r.mu.Lock()
	delete(r.cache, level)
	r.mu.Unlock()
}

func (r *QuestionRepository) ttlWithJitterLocked() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuestionLoader struct {
	pools map[int][]domain.Question
}

func NewStaticQuestionLoader(pools map[int][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{pools: pools}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, level int) ([]domain.Question, error) {
	if pool, ok := l.pools[level]; ok && len(pool) > 0 {
		return pool, nil
	}
	return nil, domain.ErrQuestionsNotFound
}
