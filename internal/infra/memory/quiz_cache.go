package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

// QuizCache caches quizzes with TTL in front of a backing repository to avoid
// repeated DB hits while students take quizzes. Writes go straight to the
// backing repository and evict the cached copy.
type QuizCache struct {
	app.QuizRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(backing app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizRepository: backing,
		ttl:            ttl,
		clock:          time.Now,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:          make(map[string]cachedQuiz),
	}
}

func (r *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.quiz.Clone(), nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.quiz, nil
		}
		r.mu.RUnlock()

		quiz, err := r.QuizRepository.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		r.mu.Lock()
		r.cache[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz).Clone(), nil
}

func (r *QuizCache) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	err := r.QuizRepository.UpdateQuiz(ctx, quiz)
	r.evict(quiz.ID)
	return err
}

func (r *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	err := r.QuizRepository.DeleteQuiz(ctx, quizID)
	r.evict(quizID)
	return err
}

func (r *QuizCache) DeleteAllQuizzes(ctx context.Context) error {
	err := r.QuizRepository.DeleteAllQuizzes(ctx)
	r.mu.Lock()
	r.cache = make(map[string]cachedQuiz)
	r.mu.Unlock()
	return err
}

func (r *QuizCache) evict(quizID string) {
	r.mu.Lock()
	delete(r.cache, quizID)
	r.mu.Unlock()
}

func (r *QuizCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
