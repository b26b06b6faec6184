package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/memory"
)

func TestQuizCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	backing := &countingRepo{QuizStore: memory.NewQuizStore(sampleQuiz())}
	repo := NewQuizCache(newClient(mr), backing, time.Minute)

	got, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Questions[0].CorrectAnswer != 1 {
		t.Fatalf("expected answer key preserved, got %+v", got.Questions[0])
	}
	if backing.calls != 1 {
		t.Fatalf("expected backing called once, got %d", backing.calls)
	}
	if !mr.Exists("quiz:doc:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:doc:quiz-1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("unexpected ttl %s", ttl)
	}

	// Second call should hit cache, backing not incremented.
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if backing.calls != 1 {
		t.Fatalf("expected cache hit, backing calls=%d", backing.calls)
	}
}

func TestQuizCacheInvalidatesOnWrite(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	repo := NewQuizCache(newClient(mr), memory.NewQuizStore(sampleQuiz()), time.Minute)

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	updated := sampleQuiz()
	updated.Title = "Renamed"
	if err := repo.UpdateQuiz(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists("quiz:doc:quiz-1") {
		t.Fatalf("expected cached quiz evicted")
	}
	got, _ := repo.GetQuiz(ctx, "quiz-1")
	if got.Title != "Renamed" {
		t.Fatalf("expected fresh title, got %q", got.Title)
	}

	if err := repo.DeleteAllQuizzes(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if mr.Exists("quiz:doc:quiz-1") {
		t.Fatalf("expected cache cleared")
	}
	if _, err := repo.GetQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingRepo struct {
	*memory.QuizStore
	calls int
}

func (r *countingRepo) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	r.calls++
	return r.QuizStore.GetQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:      "quiz-1",
		Title:   "Arithmetic",
		Subject: domain.SubjectPureMath,
		Grade:   domain.GradeFirstSecondary,
		Questions: []domain.Question{
			{
				ID:            "q1",
				QuestionText:  "What is 2 + 2?",
				Options:       []string{"3", "4", "5", "6"},
				CorrectAnswer: 1,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
