package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"math-quiz-service/internal/domain"
)

const attemptColumns = `id, student_name, quiz_id, answers_json, score, completed_at_unix`

func (s *Store) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts (`+attemptColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		attempt.ID, attempt.StudentName, attempt.QuizID, string(answers), attempt.Score, attempt.CompletedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyAttempted
	}
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *Store) ListAttempts(ctx context.Context) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts ORDER BY completed_at_unix DESC, id`)
}

func (s *Store) ListAttemptsByStudent(ctx context.Context, studentName string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE student_name = ? ORDER BY completed_at_unix DESC, id`, studentName)
}

func (s *Store) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE quiz_id = ? ORDER BY completed_at_unix DESC, id`, quizID)
}

func (s *Store) HasAttempted(ctx context.Context, studentName, quizID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM quiz_attempts WHERE student_name = ? AND quiz_id = ?`, studentName, quizID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteAllAttempts(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quiz_attempts`)
	return err
}

func (s *Store) listAttempts(ctx context.Context, query string, args ...any) ([]domain.Attempt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := []domain.Attempt{}
	for rows.Next() {
		var (
			attempt       domain.Attempt
			raw           string
			completedNano int64
		)
		if err := rows.Scan(&attempt.ID, &attempt.StudentName, &attempt.QuizID, &raw, &attempt.Score, &completedNano); err != nil {
			return nil, err
		}
		attempt.CompletedAt = time.Unix(0, completedNano).UTC()
		if err := json.Unmarshal([]byte(raw), &attempt.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}
