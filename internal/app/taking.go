package app

import (
	"context"
	"errors"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"math-quiz-service/internal/domain"
)

// SecondsPerQuestion sizes the countdown of a taking.
const SecondsPerQuestion = 60

// submitTimeout bounds the attempt write triggered by the countdown.
const submitTimeout = 10 * time.Second

// TakingState enumerates the quiz-taking states.
type TakingState string

const (
	TakingInProgress TakingState = "in_progress"
	TakingConfirming TakingState = "confirming_submit"
	TakingSubmitted  TakingState = "submitted"
	TakingCancelled  TakingState = "cancelled"
	// TakingEmpty is the terminal state of a quiz without questions.
	TakingEmpty TakingState = "empty"
)

// Terminal reports whether no further command is accepted.
func (s TakingState) Terminal() bool {
	return s == TakingSubmitted || s == TakingCancelled || s == TakingEmpty
}

// Ticker delivers countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker is the production TickerFactory.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// TakingSnapshot is what the quiz-taking view renders.
type TakingSnapshot struct {
	TakingID      string                 `json:"takingId"`
	QuizID        string                 `json:"quizId"`
	QuizTitle     string                 `json:"quizTitle"`
	StudentName   string                 `json:"studentName"`
	State         TakingState            `json:"state"`
	CurrentIndex  int                    `json:"currentIndex"`
	QuestionCount int                    `json:"questionCount"`
	Question      *domain.PublicQuestion `json:"question,omitempty"`
	Answers       []int                  `json:"answers"`
	Unanswered    int                    `json:"unanswered"`
	SecondsLeft   int                    `json:"secondsLeft"`
	Score         *int                   `json:"score,omitempty"`
	AttemptID     string                 `json:"attemptId,omitempty"`
	LastError     string                 `json:"lastError,omitempty"`
}

// Taking is one student's live run through a quiz. All commands and countdown
// ticks are serialised by mu.
type Taking struct {
	id       string
	quiz     domain.Quiz
	student  string
	attempts AttemptRepository
	now      func() time.Time

	mu          sync.Mutex
	state       TakingState
	current     int
	answers     []int
	secondsLeft int
	score       int
	attemptID   string
	lastError   string
	subscribers map[chan TakingSnapshot]struct{}

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newTaking(id string, quiz domain.Quiz, student string, attempts AttemptRepository, now func() time.Time) *Taking {
	answers := make([]int, len(quiz.Questions))
	for i := range answers {
		answers[i] = domain.Unanswered
	}
	state := TakingInProgress
	if len(quiz.Questions) == 0 {
		state = TakingEmpty
	}
	return &Taking{
		id:          id,
		quiz:        quiz,
		student:     student,
		attempts:    attempts,
		now:         now,
		state:       state,
		answers:     answers,
		secondsLeft: SecondsPerQuestion * len(quiz.Questions),
		subscribers: make(map[chan TakingSnapshot]struct{}),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// start launches the countdown. Empty quizzes never start one.
func (t *Taking) start(tickers TickerFactory) {
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()
	if state == TakingEmpty {
		close(t.done)
		return
	}
	ticker := tickers(time.Second)
	go t.run(ticker)
}

func (t *Taking) run(ticker Ticker) {
	defer close(t.done)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C():
			if finished := t.tick(); finished {
				return
			}
		}
	}
}

// tick advances the countdown; at zero it forces a submit from any live state.
// A failed write is retried on the next tick. The write runs under mu, so
// commands and snapshots wait for it, at most submitTimeout.
func (t *Taking) tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Terminal() {
		return true
	}
	if t.secondsLeft > 0 {
		t.secondsLeft--
	}
	if t.secondsLeft == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		err := t.submitLocked(ctx)
		cancel()
		if err != nil {
			log.Printf("taking %s: auto submit failed: %v", t.id, err)
			if errors.Is(err, domain.ErrAlreadyAttempted) {
				t.state = TakingCancelled
			}
		}
	}
	t.broadcastLocked()
	return t.state.Terminal()
}

func (t *Taking) ID() string { return t.id }

// Snapshot returns the current view state.
func (t *Taking) Snapshot() TakingSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// SelectAnswer records choice for question i.
func (t *Taking) SelectAnswer(i, choice int) (TakingSnapshot, error) {
	return t.command(TakingInProgress, func() error {
		if i < 0 || i >= len(t.answers) {
			return domain.ErrQuestionIndex
		}
		if choice < 0 || choice >= len(t.quiz.Questions[i].Options) {
			return domain.ErrOptionIndex
		}
		t.answers[i] = choice
		return nil
	})
}

// Next moves forward, staying put on the last question.
func (t *Taking) Next() (TakingSnapshot, error) {
	return t.command(TakingInProgress, func() error {
		if t.current < len(t.answers)-1 {
			t.current++
		}
		return nil
	})
}

// Previous moves back, staying put on the first question.
func (t *Taking) Previous() (TakingSnapshot, error) {
	return t.command(TakingInProgress, func() error {
		if t.current > 0 {
			t.current--
		}
		return nil
	})
}

// JumpTo selects a question directly from the navigator grid.
func (t *Taking) JumpTo(i int) (TakingSnapshot, error) {
	return t.command(TakingInProgress, func() error {
		if i < 0 || i >= len(t.answers) {
			return domain.ErrQuestionIndex
		}
		t.current = i
		return nil
	})
}

// RequestSubmit opens the confirmation step. It is the finish action of the
// last question.
func (t *Taking) RequestSubmit() (TakingSnapshot, error) {
	return t.command(TakingInProgress, func() error {
		if t.current != len(t.answers)-1 {
			return domain.ErrInvalidTransition
		}
		t.state = TakingConfirming
		return nil
	})
}

// CancelSubmit returns from confirmation to answering.
func (t *Taking) CancelSubmit() (TakingSnapshot, error) {
	return t.command(TakingConfirming, func() error {
		t.state = TakingInProgress
		return nil
	})
}

// ConfirmSubmit scores the answers and writes the attempt. On a failed write
// the taking stays in confirmation.
func (t *Taking) ConfirmSubmit(ctx context.Context) (TakingSnapshot, error) {
	return t.command(TakingConfirming, func() error {
		return t.submitLocked(ctx)
	})
}

// Cancel leaves the quiz without writing an attempt.
func (t *Taking) Cancel() (TakingSnapshot, error) {
	return t.command(TakingInProgress, func() error {
		t.state = TakingCancelled
		return nil
	})
}

// Close disposes the countdown and subscribers. A taking that was not
// submitted is discarded.
func (t *Taking) Close() {
	t.halt()
	<-t.done

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.state.Terminal() {
		t.state = TakingCancelled
	}
	for ch := range t.subscribers {
		delete(t.subscribers, ch)
		close(ch)
	}
}

func (t *Taking) halt() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Subscribe returns a channel of snapshots, primed with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (t *Taking) Subscribe() (<-chan TakingSnapshot, func()) {
	ch := make(chan TakingSnapshot, 8)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	ch <- t.snapshotLocked()
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		if _, ok := t.subscribers[ch]; ok {
			delete(t.subscribers, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
	return ch, cancel
}

func (t *Taking) command(required TakingState, apply func() error) (TakingSnapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Terminal() {
		return t.snapshotLocked(), domain.ErrTakingClosed
	}
	if t.state != required {
		return t.snapshotLocked(), domain.ErrInvalidTransition
	}
	if err := apply(); err != nil {
		t.lastError = err.Error()
		return t.snapshotLocked(), err
	}
	t.lastError = ""
	if t.state.Terminal() {
		t.halt()
	}
	t.broadcastLocked()
	return t.snapshotLocked(), nil
}

func (t *Taking) submitLocked(ctx context.Context) error {
	_, percent := ScoreAnswers(t.quiz, t.answers)
	attempt := domain.Attempt{
		ID:          uuid.NewString(),
		StudentName: t.student,
		QuizID:      t.quiz.ID,
		Answers:     append([]int(nil), t.answers...),
		Score:       percent,
		CompletedAt: t.now().UTC(),
	}
	if err := t.attempts.CreateAttempt(ctx, attempt); err != nil {
		t.lastError = err.Error()
		return err
	}
	t.state = TakingSubmitted
	t.score = percent
	t.attemptID = attempt.ID
	t.lastError = ""
	return nil
}

func (t *Taking) broadcastLocked() {
	snap := t.snapshotLocked()
	for ch := range t.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow reader only sees the newest.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (t *Taking) snapshotLocked() TakingSnapshot {
	unanswered := 0
	for _, a := range t.answers {
		if a == domain.Unanswered {
			unanswered++
		}
	}
	snap := TakingSnapshot{
		TakingID:      t.id,
		QuizID:        t.quiz.ID,
		QuizTitle:     t.quiz.Title,
		StudentName:   t.student,
		State:         t.state,
		CurrentIndex:  t.current,
		QuestionCount: len(t.quiz.Questions),
		Answers:       append([]int(nil), t.answers...),
		Unanswered:    unanswered,
		SecondsLeft:   t.secondsLeft,
		AttemptID:     t.attemptID,
		LastError:     t.lastError,
	}
	if t.state == TakingInProgress || t.state == TakingConfirming {
		q := t.quiz.Questions[t.current].Public()
		snap.Question = &q
	}
	if t.state == TakingSubmitted {
		score := t.score
		snap.Score = &score
	}
	return snap
}

// ScoreAnswers counts positions where the answer matches the answer key and
// returns the rounded percentage. Unanswered slots never match.
func ScoreAnswers(quiz domain.Quiz, answers []int) (correct, percent int) {
	for i, answer := range answers {
		if i >= len(quiz.Questions) || answer == domain.Unanswered {
			continue
		}
		if answer == quiz.Questions[i].CorrectAnswer {
			correct++
		}
	}
	total := len(quiz.Questions)
	if total == 0 {
		return 0, 0
	}
	percent = int(math.Round(float64(correct) / float64(total) * 100))
	return correct, percent
}
