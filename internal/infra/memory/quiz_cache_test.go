package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"math-quiz-service/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	backing := &countingRepo{QuizStore: NewQuizStore(sampleQuiz())}
	repo := NewQuizCache(backing, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected backing store once, got %d", backing.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected cache hit, backing calls %d", backing.calls)
	}
}

func TestQuizCacheEvictsOnWrite(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepo{QuizStore: NewQuizStore(sampleQuiz())}
	repo := NewQuizCache(backing, time.Minute)

	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	updated := sampleQuiz()
	updated.Title = "Renamed"
	if err := repo.UpdateQuiz(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("expected refreshed title, got %q", got.Title)
	}

	if err := repo.DeleteAllQuizzes(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if _, err := repo.GetQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found after reset, got %v", err)
	}
}

func TestQuizCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewQuizCache(NewQuizStore(sampleQuiz()), time.Minute)

	first, _ := repo.GetQuiz(ctx, "quiz-1")
	first.Questions[0].Options[0] = "mutated"
	second, _ := repo.GetQuiz(ctx, "quiz-1")
	if second.Questions[0].Options[0] != "3" {
		t.Fatalf("cached quiz was mutated through a returned copy")
	}
}

type countingRepo struct {
	*QuizStore
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
