package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

// QuizCache caches full quiz documents in Redis and falls back to the backing
// repository on a miss. Quizzes are stored as JSON under quiz:{quizID}.
// Writes go to the backing repository first and then drop the cached key so
// every instance sees the edit on its next read.
type QuizCache struct {
	app.QuizRepository

	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizCache(client *redis.Client, backing app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizRepository: backing,
		client:         client,
		ttl:            ttl,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.QuizRepository.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		raw, err := json.Marshal(quiz)
		if err != nil {
			return quiz, nil
		}
		if err := r.client.Set(ctx, r.key(quizID), raw, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("quiz cache fill %s: %v", quizID, err)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz).Clone(), nil
}

func (r *QuizCache) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	err := r.QuizRepository.UpdateQuiz(ctx, quiz)
	r.evict(ctx, quiz.ID)
	return err
}

func (r *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	err := r.QuizRepository.DeleteQuiz(ctx, quizID)
	r.evict(ctx, quizID)
	return err
}

func (r *QuizCache) DeleteAllQuizzes(ctx context.Context) error {
	if err := r.QuizRepository.DeleteAllQuizzes(ctx); err != nil {
		return err
	}
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("quiz cache scan: %v", err)
		return nil
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			log.Printf("quiz cache clear: %v", err)
		}
	}
	return nil
}

func (r *QuizCache) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, r.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("quiz cache read %s: %v", quizID, err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizCache) evict(ctx context.Context, quizID string) {
	if err := r.client.Del(ctx, r.key(quizID)).Err(); err != nil {
		log.Printf("quiz cache evict %s: %v", quizID, err)
	}
}

const keyPrefix = "quiz:doc:"

func (r *QuizCache) key(quizID string) string {
	return keyPrefix + quizID
}

func (r *QuizCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
