package app

import (
	"context"
	"io"

	"math-quiz-service/internal/domain"
)

// QuizRepository persists quizzes with their embedded questions.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	// ListQuizzes returns quizzes newest first by creation time.
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	DeleteAllQuizzes(ctx context.Context) error
}

// AttemptRepository persists immutable attempts. CreateAttempt must return
// domain.ErrAlreadyAttempted when (student_name, quiz_id) already exists.
type AttemptRepository interface {
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	// ListAttempts returns every attempt, newest first by completion time.
	ListAttempts(ctx context.Context) ([]domain.Attempt, error)
	ListAttemptsByStudent(ctx context.Context, studentName string) ([]domain.Attempt, error)
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error)
	HasAttempted(ctx context.Context, studentName, quizID string) (bool, error)
	DeleteAllAttempts(ctx context.Context) error
}

// SessionRepository abstracts how login sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, sessionID string) (domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// DraftRepository stores quizzes that are still being authored.
type DraftRepository interface {
	SaveDraft(ctx context.Context, draft *Draft) error
	GetDraft(ctx context.Context, draftID string) (*Draft, error)
	DeleteDraft(ctx context.Context, draftID string) error
}

// ImageStore is the object storage holding question images.
type ImageStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// List returns object keys under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, keys []string) error
}
