package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"math-quiz-service/internal/domain"
)

// defaultTotalMarks is used when an attempt's quiz is gone or has no questions.
const defaultTotalMarks = 100

// ColorTier buckets a percentage score for display.
type ColorTier string

const (
	TierGreen  ColorTier = "green"
	TierYellow ColorTier = "yellow"
	TierOrange ColorTier = "orange"
	TierRed    ColorTier = "red"
)

// TierFor maps a percentage score to its color tier.
func TierFor(score int) ColorTier {
	switch {
	case score >= 85:
		return TierGreen
	case score >= 70:
		return TierYellow
	case score >= 50:
		return TierOrange
	default:
		return TierRed
	}
}

// HistogramBucket counts attempts whose absolute score falls in [Low, Low+9].
type HistogramBucket struct {
	Range string `json:"range"`
	Low   int    `json:"low"`
	Count int    `json:"count"`
}

// ResultRow is one line of the results table.
type ResultRow struct {
	AttemptID   string    `json:"attemptId"`
	StudentName string    `json:"studentName"`
	GradeLabel  string    `json:"gradeLabel"`
	QuizID      string    `json:"quizId"`
	QuizTitle   string    `json:"quizTitle"`
	Score       int       `json:"score"`
	ActualScore int       `json:"actualScore"`
	TotalMarks  int       `json:"totalMarks"`
	Tier        ColorTier `json:"tier"`
	CompletedAt time.Time `json:"completedAt"`
	CompletedOn string    `json:"completedOn"`
}

// Results is the aggregated view of a set of attempts.
type Results struct {
	Histogram []HistogramBucket `json:"histogram"`
	Rows      []ResultRow       `json:"rows"`
}

// TotalMarks is the question count of quiz, or 100 when it has none.
func TotalMarks(quiz *domain.Quiz) int {
	if quiz == nil || len(quiz.Questions) == 0 {
		return defaultTotalMarks
	}
	return len(quiz.Questions)
}

// ActualScore converts a percentage back to marks out of total.
func ActualScore(score, total int) int {
	return int(math.Round(float64(score) / 100 * float64(total)))
}

// BuildResults aggregates attempts against the quizzes they reference. Rows keep
// the attempt order; the histogram is sorted by lower bound.
func BuildResults(attempts []domain.Attempt, quizzes []domain.Quiz, dates DateFormatter) Results {
	byID := make(map[string]*domain.Quiz, len(quizzes))
	for i := range quizzes {
		byID[quizzes[i].ID] = &quizzes[i]
	}

	counts := make(map[int]int)
	rows := make([]ResultRow, 0, len(attempts))
	for _, attempt := range attempts {
		quiz := byID[attempt.QuizID]
		total := TotalMarks(quiz)
		actual := ActualScore(attempt.Score, total)
		counts[(actual/10)*10]++

		row := ResultRow{
			AttemptID:   attempt.ID,
			StudentName: attempt.StudentName,
			GradeLabel:  domain.UnknownGrade,
			QuizID:      attempt.QuizID,
			QuizTitle:   domain.DeletedQuizTitle,
			Score:       attempt.Score,
			ActualScore: actual,
			TotalMarks:  total,
			Tier:        TierFor(attempt.Score),
			CompletedAt: attempt.CompletedAt,
			CompletedOn: dates.Format(attempt.CompletedAt),
		}
		if quiz != nil {
			row.GradeLabel = domain.ResultGradeLabel(quiz.Grade)
			row.QuizTitle = quiz.Title
		}
		rows = append(rows, row)
	}

	histogram := make([]HistogramBucket, 0, len(counts))
	for low, count := range counts {
		histogram = append(histogram, HistogramBucket{
			Range: fmt.Sprintf("%d-%d", low, low+9),
			Low:   low,
			Count: count,
		})
	}
	sort.Slice(histogram, func(i, j int) bool { return histogram[i].Low < histogram[j].Low })

	return Results{Histogram: histogram, Rows: rows}
}

// ResultsService loads attempts and quizzes for the teacher's results views.
type ResultsService struct {
	quizzes  QuizRepository
	attempts AttemptRepository
	dates    DateFormatter
}

func NewResultsService(quizzes QuizRepository, attempts AttemptRepository, dates DateFormatter) *ResultsService {
	return &ResultsService{quizzes: quizzes, attempts: attempts, dates: dates}
}

// Results aggregates every attempt, or only those of quizID when it is set.
func (s *ResultsService) Results(ctx context.Context, session domain.Session, quizID string) (Results, error) {
	if err := requireTeacher(session); err != nil {
		return Results{}, err
	}
	if quizID != "" {
		quizzes, attempts, err := loadForQuiz(ctx, s.quizzes, s.attempts, quizID)
		if err != nil {
			return Results{}, err
		}
		return BuildResults(attempts, quizzes, s.dates), nil
	}
	quizzes, attempts, err := loadBoth(ctx, s.quizzes, s.attempts)
	if err != nil {
		return Results{}, err
	}
	return BuildResults(attempts, quizzes, s.dates), nil
}

// loadForQuiz fetches one quiz and its attempts. A deleted quiz still yields
// its attempts, which then render as orphans.
func loadForQuiz(ctx context.Context, quizzes QuizRepository, attempts AttemptRepository, quizID string) ([]domain.Quiz, []domain.Attempt, error) {
	var (
		qs []domain.Quiz
		as []domain.Attempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quiz, err := quizzes.GetQuiz(gctx, quizID)
		if errors.Is(err, domain.ErrQuizNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		qs = []domain.Quiz{quiz}
		return nil
	})
	g.Go(func() error {
		var err error
		as, err = attempts.ListAttemptsByQuiz(gctx, quizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return qs, as, nil
}

// loadBoth fetches the quiz list and the attempt list concurrently.
func loadBoth(ctx context.Context, quizzes QuizRepository, attempts AttemptRepository) ([]domain.Quiz, []domain.Attempt, error) {
	var (
		qs []domain.Quiz
		as []domain.Attempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		qs, err = quizzes.ListQuizzes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		as, err = attempts.ListAttempts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return qs, as, nil
}
