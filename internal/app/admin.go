package app

import (
	"context"
	"fmt"
	"log"
	"math"

	"math-quiz-service/internal/domain"
)

// Stats summarises the teacher dashboard cards.
type Stats struct {
	QuizCount    int `json:"quizCount"`
	AttemptCount int `json:"attemptCount"`
	AverageScore int `json:"averageScore"`
	// ActiveTakings counts quizzes being taken right now.
	ActiveTakings int `json:"activeTakings"`
}

// Dashboard is the teacher's reloaded view after a change.
type Dashboard struct {
	Quizzes  []domain.Quiz    `json:"quizzes"`
	Attempts []domain.Attempt `json:"attempts"`
	Stats    Stats            `json:"stats"`
}

// AdminService holds teacher-wide operations over all stored data.
type AdminService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	images   ImageStore
}

func NewAdminService(quizzes QuizRepository, attempts AttemptRepository, images ImageStore) *AdminService {
	return &AdminService{quizzes: quizzes, attempts: attempts, images: images}
}

// Dashboard loads both lists and the derived stats.
func (s *AdminService) Dashboard(ctx context.Context, session domain.Session) (Dashboard, error) {
	if err := requireTeacher(session); err != nil {
		return Dashboard{}, err
	}
	quizzes, attempts, err := loadBoth(ctx, s.quizzes, s.attempts)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Quizzes: quizzes, Attempts: attempts, Stats: ComputeStats(quizzes, attempts)}, nil
}

// Reset deletes all attempts, then all quizzes, then all question images.
// The first failing step aborts the rest; earlier steps are not rolled back.
func (s *AdminService) Reset(ctx context.Context, session domain.Session) (Dashboard, error) {
	if err := requireTeacher(session); err != nil {
		return Dashboard{}, err
	}

	if err := s.attempts.DeleteAllAttempts(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("%w: delete attempts: %w", domain.ErrResetFailed, err)
	}
	if err := s.quizzes.DeleteAllQuizzes(ctx); err != nil {
		return Dashboard{}, fmt.Errorf("%w: delete quizzes: %w", domain.ErrResetFailed, err)
	}
	keys, err := s.images.List(ctx, QuestionImagePrefix)
	if err != nil {
		return Dashboard{}, fmt.Errorf("%w: list images: %w", domain.ErrResetFailed, err)
	}
	if len(keys) > 0 {
		if err := s.images.Remove(ctx, keys); err != nil {
			return Dashboard{}, fmt.Errorf("%w: remove images: %w", domain.ErrResetFailed, err)
		}
	}
	log.Printf("reset complete: removed %d question images", len(keys))

	return s.Dashboard(ctx, session)
}

// ComputeStats counts quizzes and attempts and averages attempt scores.
func ComputeStats(quizzes []domain.Quiz, attempts []domain.Attempt) Stats {
	stats := Stats{QuizCount: len(quizzes), AttemptCount: len(attempts)}
	if len(attempts) == 0 {
		return stats
	}
	sum := 0
	for _, a := range attempts {
		sum += a.Score
	}
	stats.AverageScore = int(math.Round(float64(sum) / float64(len(attempts))))
	return stats
}
