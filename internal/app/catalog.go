package app

import (
	"context"

	"math-quiz-service/internal/domain"
)

// CatalogEntry is a quiz as listed on the student dashboard.
type CatalogEntry struct {
	Quiz          domain.PublicQuiz `json:"quiz"`
	QuestionCount int               `json:"questionCount"`
	Attempted     bool              `json:"attempted"`
}

// Catalog is the student dashboard for one grade.
type Catalog struct {
	Grade             domain.Grade     `json:"grade"`
	Subject           domain.Subject   `json:"subject,omitempty"`
	AvailableSubjects []domain.Subject `json:"availableSubjects"`
	Quizzes           []CatalogEntry   `json:"quizzes"`
	Attempts          []domain.Attempt `json:"attempts"`
}

// CatalogService lists quizzes for students.
type CatalogService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
}

func NewCatalogService(quizzes QuizRepository, attempts AttemptRepository) *CatalogService {
	return &CatalogService{quizzes: quizzes, attempts: attempts}
}

// Browse lists the quizzes of grade and subject. With no subject selected the
// list is empty, as is a subject not offered to the grade.
func (s *CatalogService) Browse(ctx context.Context, session domain.Session, grade domain.Grade, subject domain.Subject) (Catalog, error) {
	if err := requireStudent(session); err != nil {
		return Catalog{}, err
	}
	if grade == "" {
		grade = domain.GradeFirstSecondary
	}
	catalog := Catalog{
		Grade:             grade,
		Subject:           subject,
		AvailableSubjects: domain.AvailableSubjects(grade),
		Quizzes:           []CatalogEntry{},
	}

	attempts, err := s.attempts.ListAttemptsByStudent(ctx, session.StudentName)
	if err != nil {
		return Catalog{}, err
	}
	catalog.Attempts = attempts
	if subject == "" || !offered(catalog.AvailableSubjects, subject) {
		return catalog, nil
	}

	done := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		done[a.QuizID] = true
	}
	quizzes, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return Catalog{}, err
	}
	for _, q := range quizzes {
		if q.Subject != subject || q.Grade != grade {
			continue
		}
		catalog.Quizzes = append(catalog.Quizzes, CatalogEntry{
			Quiz:          q.Public(),
			QuestionCount: len(q.Questions),
			Attempted:     done[q.ID],
		})
	}
	return catalog, nil
}

func offered(subjects []domain.Subject, subject domain.Subject) bool {
	for _, s := range subjects {
		if s == subject {
			return true
		}
	}
	return false
}
