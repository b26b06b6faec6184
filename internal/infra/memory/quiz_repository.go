package memory

import (
	"context"
	"sort"
	"sync"

	"math-quiz-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizRepository (useful for tests/demos).
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore(seed ...domain.Quiz) *QuizStore {
	s := &QuizStore{quizzes: make(map[string]domain.Quiz)}
	for _, q := range seed {
		s.quizzes[q.ID] = q.Clone()
	}
	return s
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *QuizStore) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quiz, ok := s.quizzes[quizID]; ok {
		return quiz.Clone(), nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, q.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quizzes, quizID)
	return nil
}

func (s *QuizStore) DeleteAllQuizzes(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes = make(map[string]domain.Quiz)
	return nil
}
