package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"math-quiz-service/internal/domain"
)

const quizColumns = `id, title, subject, grade, questions_json, created_at_unix, updated_at_unix`

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (`+quizColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		quiz.ID, quiz.Title, string(quiz.Subject), string(quiz.Grade), string(questions),
		quiz.CreatedAt.UnixNano(), quiz.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE quizzes SET title = ?, subject = ?, grade = ?, questions_json = ?, updated_at_unix = ? WHERE id = ?`,
		quiz.Title, string(quiz.Subject), string(quiz.Grade), string(questions), quiz.UpdatedAt.UnixNano(), quiz.ID,
	)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, quizID)
	quiz, err := scanQuiz(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, err
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+quizColumns+` FROM quizzes ORDER BY created_at_unix DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, quizID)
	return err
}

func (s *Store) DeleteAllQuizzes(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quizzes`)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row scanner) (domain.Quiz, error) {
	var (
		quiz                     domain.Quiz
		subject, grade, raw      string
		createdNano, updatedNano int64
	)
	if err := row.Scan(&quiz.ID, &quiz.Title, &subject, &grade, &raw, &createdNano, &updatedNano); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Subject = domain.Subject(subject)
	quiz.Grade = domain.Grade(grade)
	quiz.CreatedAt = time.Unix(0, createdNano).UTC()
	quiz.UpdatedAt = time.Unix(0, updatedNano).UTC()
	if err := json.Unmarshal([]byte(raw), &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode questions: %w", err)
	}
	return quiz, nil
}
