package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"math-quiz-service/internal/domain"
)

// QuizRepository stores quizzes in Postgres with questions as JSONB.
type QuizRepository struct {
	pool *pgxpool.Pool
}

func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

const quizColumns = `id, title, subject, grade, questions, created_at, updated_at`

func (r *QuizRepository) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO quizzes (`+quizColumns+`) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`,
		quiz.ID, quiz.Title, string(quiz.Subject), string(quiz.Grade), string(questions), quiz.CreatedAt, quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (r *QuizRepository) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE quizzes SET title=$2, subject=$3, grade=$4, questions=$5::jsonb, updated_at=$6 WHERE id=$1`,
		quiz.ID, quiz.Title, string(quiz.Subject), string(quiz.Grade), string(questions), quiz.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, quizID)
	quiz, err := scanQuiz(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+quizColumns+` FROM quizzes ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepository) DeleteQuiz(ctx context.Context, quizID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return nil
}

func (r *QuizRepository) DeleteAllQuizzes(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM quizzes`); err != nil {
		return fmt.Errorf("delete quizzes: %w", err)
	}
	return nil
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		quiz           domain.Quiz
		subject, grade string
		rawQuestions   []byte
	)
	if err := row.Scan(&quiz.ID, &quiz.Title, &subject, &grade, &rawQuestions, &quiz.CreatedAt, &quiz.UpdatedAt); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Subject = domain.Subject(subject)
	quiz.Grade = domain.Grade(grade)
	if err := json.Unmarshal(rawQuestions, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	return quiz, nil
}
