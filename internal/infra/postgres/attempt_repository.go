package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"math-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// AttemptRepository stores submitted attempts. The table's unique
// (student_name, quiz_id) constraint enforces one attempt per quiz.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, student_name, quiz_id, answers, score, completed_at`

func (r *AttemptRepository) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (`+attemptColumns+`) VALUES ($1, $2, $3, $4::jsonb, $5, $6)`,
		attempt.ID, attempt.StudentName, attempt.QuizID, string(answers), attempt.Score, attempt.CompletedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyAttempted
	}
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) ListAttempts(ctx context.Context) ([]domain.Attempt, error) {
	return r.list(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts ORDER BY completed_at DESC, id`)
}

func (r *AttemptRepository) ListAttemptsByStudent(ctx context.Context, studentName string) ([]domain.Attempt, error) {
	return r.list(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE student_name=$1 ORDER BY completed_at DESC, id`, studentName)
}

func (r *AttemptRepository) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return r.list(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE quiz_id=$1 ORDER BY completed_at DESC, id`, quizID)
}

func (r *AttemptRepository) HasAttempted(ctx context.Context, studentName, quizID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quiz_attempts WHERE student_name=$1 AND quiz_id=$2)`,
		studentName, quizID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attempt: %w", err)
	}
	return exists, nil
}

func (r *AttemptRepository) DeleteAllAttempts(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM quiz_attempts`); err != nil {
		return fmt.Errorf("delete attempts: %w", err)
	}
	return nil
}

func (r *AttemptRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := []domain.Attempt{}
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func scanAttempt(row pgx.Row) (domain.Attempt, error) {
	var (
		attempt    domain.Attempt
		rawAnswers []byte
	)
	if err := row.Scan(&attempt.ID, &attempt.StudentName, &attempt.QuizID, &rawAnswers, &attempt.Score, &attempt.CompletedAt); err != nil {
		return domain.Attempt{}, err
	}
	if err := json.Unmarshal(rawAnswers, &attempt.Answers); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal answers: %w", err)
	}
	return attempt, nil
}
