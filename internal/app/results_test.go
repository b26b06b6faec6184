package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/memory"
)

func tenQuestionQuiz() domain.Quiz {
	qs := make([]domain.Question, 10)
	for i := range qs {
		qs[i] = question("q", 0)
	}
	quiz := quizWith("quiz-10", qs...)
	quiz.Title = "Algebra"
	quiz.Grade = domain.GradeSecondSecondary
	return quiz
}

func TestBuildResultsRowsAndHistogram(t *testing.T) {
	done := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	attempts := []domain.Attempt{
		{ID: "a1", StudentName: "Ali", QuizID: "quiz-10", Score: 90, CompletedAt: done},
		{ID: "a2", StudentName: "Mona", QuizID: "gone", Score: 40, CompletedAt: done},
		{ID: "a3", StudentName: "Omar", QuizID: "quiz-10", Score: 70, CompletedAt: done},
	}
	res := app.BuildResults(attempts, []domain.Quiz{tenQuestionQuiz()}, app.NewDateFormatter("en-US", time.UTC))

	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	first := res.Rows[0]
	if first.ActualScore != 9 || first.TotalMarks != 10 || first.QuizTitle != "Algebra" || first.Tier != app.TierGreen {
		t.Fatalf("unexpected first row %+v", first)
	}
	if first.GradeLabel != domain.ResultGradeLabel(domain.GradeSecondSecondary) || first.CompletedOn != "3/5/2026" {
		t.Fatalf("unexpected labels %+v", first)
	}
	orphan := res.Rows[1]
	if orphan.QuizTitle != domain.DeletedQuizTitle || orphan.GradeLabel != domain.UnknownGrade {
		t.Fatalf("expected orphan labels, got %+v", orphan)
	}
	if orphan.TotalMarks != 100 || orphan.ActualScore != 40 || orphan.Tier != app.TierRed {
		t.Fatalf("expected orphan scored out of 100, got %+v", orphan)
	}

	// absolute scores 9, 40 and 7
	want := []app.HistogramBucket{
		{Range: "0-9", Low: 0, Count: 2},
		{Range: "40-49", Low: 40, Count: 1},
	}
	if len(res.Histogram) != len(want) {
		t.Fatalf("expected %d buckets, got %+v", len(want), res.Histogram)
	}
	for i := range want {
		if res.Histogram[i] != want[i] {
			t.Fatalf("bucket %d: got %+v want %+v", i, res.Histogram[i], want[i])
		}
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := map[int]app.ColorTier{
		100: app.TierGreen, 85: app.TierGreen, 84: app.TierYellow, 70: app.TierYellow,
		69: app.TierOrange, 50: app.TierOrange, 49: app.TierRed, 0: app.TierRed,
	}
	for score, want := range cases {
		if got := app.TierFor(score); got != want {
			t.Fatalf("score %d: got %s want %s", score, got, want)
		}
	}
}

func TestDateFormatterLocales(t *testing.T) {
	when := time.Date(2026, 3, 5, 23, 30, 0, 0, time.UTC)
	cases := []struct {
		locale string
		loc    *time.Location
		want   string
	}{
		{"en-US", time.UTC, "3/5/2026"},
		{"en-GB", time.UTC, "05/03/2026"},
		{"ar-EG", time.UTC, "٥\u200f/٣\u200f/٢٠٢٦"},
		{"not a locale!", time.UTC, "٥\u200f/٣\u200f/٢٠٢٦"},
		{"en-US", time.FixedZone("EET", 2*60*60), "3/6/2026"},
	}
	for _, tc := range cases {
		if got := app.NewDateFormatter(tc.locale, tc.loc).Format(when); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.locale, got, tc.want)
		}
	}
}

func TestResultsServiceFiltersByQuiz(t *testing.T) {
	ctx := context.Background()
	quizzes := memory.NewQuizStore(tenQuestionQuiz(), quizWith("quiz-2", question("q1", 0)))
	attempts := memory.NewAttemptStore(
		domain.Attempt{ID: "a1", StudentName: "Ali", QuizID: "quiz-10", Score: 90},
		domain.Attempt{ID: "a2", StudentName: "Ali", QuizID: "quiz-2", Score: 100},
	)
	svc := app.NewResultsService(quizzes, attempts, app.NewDateFormatter("en-US", time.UTC))

	if _, err := svc.Results(ctx, ali, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected student forbidden, got %v", err)
	}
	all, err := svc.Results(ctx, teacher, "")
	if err != nil || len(all.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d (%v)", len(all.Rows), err)
	}
	one, err := svc.Results(ctx, teacher, "quiz-2")
	if err != nil || len(one.Rows) != 1 || one.Rows[0].AttemptID != "a2" {
		t.Fatalf("expected only quiz-2 rows, got %+v (%v)", one.Rows, err)
	}
}

func TestComputeStats(t *testing.T) {
	quizzes := []domain.Quiz{quizWith("a"), quizWith("b")}
	attempts := []domain.Attempt{{Score: 80}, {Score: 75}, {Score: 90}}
	stats := app.ComputeStats(quizzes, attempts)
	if stats.QuizCount != 2 || stats.AttemptCount != 3 || stats.AverageScore != 82 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if empty := app.ComputeStats(nil, nil); empty != (app.Stats{}) {
		t.Fatalf("expected zero stats, got %+v", empty)
	}
}

// countingAttempts records which listing a results view asked for.
type countingAttempts struct {
	*memory.AttemptStore
	all, byQuiz int
}

func (c *countingAttempts) ListAttempts(ctx context.Context) ([]domain.Attempt, error) {
	c.all++
	return c.AttemptStore.ListAttempts(ctx)
}

func (c *countingAttempts) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	c.byQuiz++
	return c.AttemptStore.ListAttemptsByQuiz(ctx, quizID)
}

func TestQuizResultsLoadOnlyThatQuiz(t *testing.T) {
	ctx := context.Background()
	attempts := &countingAttempts{AttemptStore: memory.NewAttemptStore(
		domain.Attempt{ID: "a1", StudentName: "Ali", QuizID: "quiz-10", Score: 90},
		domain.Attempt{ID: "a2", StudentName: "Ali", QuizID: "gone", Score: 40},
	)}
	svc := app.NewResultsService(memory.NewQuizStore(tenQuestionQuiz()), attempts, app.NewDateFormatter("en-US", time.UTC))

	res, err := svc.Results(ctx, teacher, "quiz-10")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if attempts.byQuiz != 1 || attempts.all != 0 {
		t.Fatalf("expected a per-quiz listing, got all=%d byQuiz=%d", attempts.all, attempts.byQuiz)
	}
	if len(res.Rows) != 1 || res.Rows[0].QuizTitle != "Algebra" {
		t.Fatalf("unexpected rows %+v", res.Rows)
	}

	orphans, err := svc.Results(ctx, teacher, "gone")
	if err != nil {
		t.Fatalf("results for deleted quiz: %v", err)
	}
	if len(orphans.Rows) != 1 || orphans.Rows[0].QuizTitle != domain.DeletedQuizTitle || orphans.Rows[0].TotalMarks != 100 {
		t.Fatalf("expected orphan row, got %+v", orphans.Rows)
	}
}

func TestResultsAreRepeatable(t *testing.T) {
	ctx := context.Background()
	done := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	attempts := memory.NewAttemptStore(
		domain.Attempt{ID: "a1", StudentName: "Ali", QuizID: "quiz-10", Score: 90, CompletedAt: done},
		domain.Attempt{ID: "a2", StudentName: "Mona", QuizID: "gone", Score: 40, CompletedAt: done.Add(time.Hour)},
		domain.Attempt{ID: "a3", StudentName: "Omar", QuizID: "quiz-10", Score: 70, CompletedAt: done.Add(2 * time.Hour)},
	)
	svc := app.NewResultsService(memory.NewQuizStore(tenQuestionQuiz()), attempts, app.NewDateFormatter("ar-EG", time.UTC))

	first, err := svc.Results(ctx, teacher, "")
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	second, err := svc.Results(ctx, teacher, "")
	if err != nil {
		t.Fatalf("results again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got\n%+v\n%+v", first, second)
	}
	if len(first.Rows) != 3 || first.Rows[0].AttemptID != "a3" {
		t.Fatalf("expected newest first, got %+v", first.Rows)
	}
}
