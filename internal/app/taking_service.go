package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"math-quiz-service/internal/domain"
)

// TakingService starts quiz takings and keeps the live ones addressable.
type TakingService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	tickers  TickerFactory
	now      func() time.Time

	mu      sync.RWMutex
	takings map[string]*Taking
}

func NewTakingService(quizzes QuizRepository, attempts AttemptRepository) *TakingService {
	return &TakingService{
		quizzes:  quizzes,
		attempts: attempts,
		tickers:  NewRealTicker,
		now:      time.Now,
		takings:  make(map[string]*Taking),
	}
}

// WithTickers is test-only for driving the countdown by hand.
func (s *TakingService) WithTickers(tickers TickerFactory) *TakingService {
	s.tickers = tickers
	return s
}

// WithClock is test-only for deterministic completion timestamps.
func (s *TakingService) WithClock(now func() time.Time) *TakingService {
	s.now = now
	return s
}

// Start begins a taking for a student who has not attempted the quiz yet.
func (s *TakingService) Start(ctx context.Context, session domain.Session, quizID string) (*Taking, error) {
	if err := requireStudent(session); err != nil {
		return nil, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	attempted, err := s.attempts.HasAttempted(ctx, session.StudentName, quizID)
	if err != nil {
		return nil, err
	}
	if attempted {
		return nil, domain.ErrAlreadyAttempted
	}

	taking := newTaking(uuid.NewString(), quiz.Clone(), session.StudentName, s.attempts, s.now)
	s.mu.Lock()
	s.takings[taking.ID()] = taking
	s.mu.Unlock()
	taking.start(s.tickers)
	return taking, nil
}

// Finish tears a taking down: the countdown stops and the taking is forgotten.
func (s *TakingService) Finish(takingID string) {
	s.mu.Lock()
	taking, ok := s.takings[takingID]
	delete(s.takings, takingID)
	s.mu.Unlock()
	if ok {
		taking.Close()
	}
}

// Active reports how many takings are live. The teacher dashboard shows it.
func (s *TakingService) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.takings)
}
