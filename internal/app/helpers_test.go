package app_test

import (
	"context"
	"testing"
	"time"

	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/memory"
)

var (
	teacher = domain.Session{ID: "s-teacher", IsTeacher: true, StudentName: "teacher"}
	ali     = domain.Session{ID: "s-ali", StudentName: "Ali"}
)

// manualTicker lets a test deliver countdown ticks one at a time.
type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

func (m *manualTicker) tick(n int) {
	for i := 0; i < n; i++ {
		m.ch <- time.Now()
	}
}

func question(text string, correct int) domain.Question {
	return domain.Question{
		ID:            text,
		QuestionText:  text,
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: correct,
	}
}

func quizWith(id string, questions ...domain.Question) domain.Quiz {
	return domain.Quiz{
		ID:        id,
		Title:     "Quiz " + id,
		Subject:   domain.SubjectPureMath,
		Grade:     domain.GradeFirstSecondary,
		Questions: questions,
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

type takingFixture struct {
	svc      *app.TakingService
	ticker   *manualTicker
	attempts *memory.AttemptStore
}

func newTakingFixture(quizzes ...domain.Quiz) *takingFixture {
	f := &takingFixture{
		ticker:   newManualTicker(),
		attempts: memory.NewAttemptStore(),
	}
	f.svc = app.NewTakingService(memory.NewQuizStore(quizzes...), f.attempts).
		WithTickers(func(time.Duration) app.Ticker { return f.ticker }).
		WithClock(func() time.Time { return time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC) })
	return f
}

func (f *takingFixture) start(t *testing.T, session domain.Session, quizID string) *app.Taking {
	t.Helper()
	taking, err := f.svc.Start(context.Background(), session, quizID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { f.svc.Finish(taking.ID()) })
	return taking
}

// waitForState reads snapshots until one reaches want.
func waitForState(t *testing.T, ch <-chan app.TakingSnapshot, want app.TakingState) app.TakingSnapshot {
	t.Helper()
	return waitForSnapshot(t, ch, func(s app.TakingSnapshot) bool { return s.State == want })
}

// waitForSnapshot reads snapshots until one satisfies match.
func waitForSnapshot(t *testing.T, ch <-chan app.TakingSnapshot, match func(app.TakingSnapshot) bool) app.TakingSnapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatalf("subscription closed before the expected snapshot")
			}
			if match(snap) {
				return snap
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot")
		}
	}
}
