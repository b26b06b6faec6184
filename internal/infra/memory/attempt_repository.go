package memory

import (
	"context"
	"sort"
	"sync"

	"math-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
}

func NewAttemptStore(seed ...domain.Attempt) *AttemptStore {
	s := &AttemptStore{}
	for _, a := range seed {
		s.attempts = append(s.attempts, cloneAttempt(a))
	}
	return s
}

func (s *AttemptStore) CreateAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.StudentName == attempt.StudentName && a.QuizID == attempt.QuizID {
			return domain.ErrAlreadyAttempted
		}
	}
	s.attempts = append(s.attempts, cloneAttempt(attempt))
	return nil
}

func (s *AttemptStore) ListAttempts(_ context.Context) ([]domain.Attempt, error) {
	return s.filter(func(domain.Attempt) bool { return true }), nil
}

func (s *AttemptStore) ListAttemptsByStudent(_ context.Context, studentName string) ([]domain.Attempt, error) {
	return s.filter(func(a domain.Attempt) bool { return a.StudentName == studentName }), nil
}

func (s *AttemptStore) ListAttemptsByQuiz(_ context.Context, quizID string) ([]domain.Attempt, error) {
	return s.filter(func(a domain.Attempt) bool { return a.QuizID == quizID }), nil
}

func (s *AttemptStore) HasAttempted(_ context.Context, studentName, quizID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attempts {
		if a.StudentName == studentName && a.QuizID == quizID {
			return true, nil
		}
	}
	return false, nil
}

func (s *AttemptStore) DeleteAllAttempts(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = nil
	return nil
}

// filter returns matching attempts newest first.
func (s *AttemptStore) filter(keep func(domain.Attempt) bool) []domain.Attempt {
	s.mu.RLock()
	out := make([]domain.Attempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		if keep(a) {
			out = append(out, cloneAttempt(a))
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out
}

func cloneAttempt(a domain.Attempt) domain.Attempt {
	a.Answers = append([]int(nil), a.Answers...)
	return a
}
