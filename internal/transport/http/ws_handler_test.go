package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialTake(t *testing.T, f *fixture, token, quizID string) *websocket.Conn {
	t.Helper()
	u := "ws" + f.server.URL[len("http"):] + "/ws/take?quizId=" + url.QueryEscape(quizID) + "&token=" + url.QueryEscape(token)
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readNext(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

// readState skips messages until a snapshot satisfies match.
func readState(t *testing.T, conn *websocket.Conn, match func(app.TakingSnapshot) bool) app.TakingSnapshot {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readNext(t, conn)
		if msg.Type != "state" {
			continue
		}
		var snap app.TakingSnapshot
		if err := json.Unmarshal(msg.Payload, &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if match(snap) {
			return snap
		}
	}
	t.Fatalf("expected snapshot not received")
	return app.TakingSnapshot{}
}

// readError skips countdown snapshots until an error message arrives.
func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readNext(t, conn)
		if msg.Type != "error" {
			continue
		}
		var payload errorPayload
		_ = json.Unmarshal(msg.Payload, &payload)
		return payload.Message
	}
	t.Fatalf("expected error message not received")
	return ""
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func TestWebSocketTakingFlow(t *testing.T) {
	f := newFixture(t, sampleQuiz())
	token := f.login(t, "Ali", false)

	conn := dialTake(t, f, token, "quiz-1")
	defer conn.Close()

	first := readState(t, conn, func(app.TakingSnapshot) bool { return true })
	if first.State != app.TakingInProgress || first.QuestionCount != 2 || first.SecondsLeft != 120 {
		t.Fatalf("unexpected initial snapshot %+v", first)
	}
	if first.Question == nil || first.Question.QuestionText != "2 + 2" {
		t.Fatalf("expected first question, got %+v", first.Question)
	}

	send(t, conn, "select", map[string]int{"index": 0, "choice": 1})
	readState(t, conn, func(s app.TakingSnapshot) bool { return s.Answers[0] == 1 })

	// finishing early is refused
	send(t, conn, "requestSubmit", nil)
	if msg := readError(t, conn); msg == "" {
		t.Fatalf("expected error for early submit")
	}

	send(t, conn, "next", nil)
	readState(t, conn, func(s app.TakingSnapshot) bool { return s.CurrentIndex == 1 })
	send(t, conn, "select", map[string]int{"index": 1, "choice": 0})
	readState(t, conn, func(s app.TakingSnapshot) bool { return s.Answers[1] == 0 })

	send(t, conn, "requestSubmit", nil)
	readState(t, conn, func(s app.TakingSnapshot) bool { return s.State == app.TakingConfirming })
	send(t, conn, "confirmSubmit", nil)
	done := readState(t, conn, func(s app.TakingSnapshot) bool { return s.State == app.TakingSubmitted })
	if done.Score == nil || *done.Score != 50 {
		t.Fatalf("expected score 50, got %+v", done.Score)
	}

	attempted, _ := f.attempts.HasAttempted(context.Background(), "Ali", "quiz-1")
	if !attempted {
		t.Fatalf("expected attempt stored")
	}
}

func TestWebSocketRejectsSecondAttempt(t *testing.T) {
	f := newFixture(t, sampleQuiz())
	token := f.login(t, "Ali", false)

	conn := dialTake(t, f, token, "quiz-1")
	readState(t, conn, func(app.TakingSnapshot) bool { return true })
	send(t, conn, "next", nil)
	send(t, conn, "requestSubmit", nil)
	send(t, conn, "confirmSubmit", nil)
	readState(t, conn, func(s app.TakingSnapshot) bool { return s.State == app.TakingSubmitted })
	conn.Close()

	again := dialTake(t, f, token, "quiz-1")
	defer again.Close()
	if msg := readError(t, again); msg != domain.ErrAlreadyAttempted.Error() {
		t.Fatalf("expected already attempted, got %q", msg)
	}
}

func TestWebSocketCancelDiscardsTaking(t *testing.T) {
	f := newFixture(t, sampleQuiz())
	token := f.login(t, "Mona", false)

	conn := dialTake(t, f, token, "quiz-1")
	defer conn.Close()
	readState(t, conn, func(app.TakingSnapshot) bool { return true })

	send(t, conn, "cancel", nil)
	readState(t, conn, func(s app.TakingSnapshot) bool { return s.State == app.TakingCancelled })

	all, _ := f.attempts.ListAttempts(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected no attempt after cancel, got %d", len(all))
	}
}

func TestDashboardCountsActiveTakings(t *testing.T) {
	f := newFixture(t, sampleQuiz())
	teacher := f.login(t, teacherName, true)
	student := f.login(t, "Ali", false)

	conn := dialTake(t, f, student, "quiz-1")
	readState(t, conn, func(app.TakingSnapshot) bool { return true })

	var dash app.Dashboard
	if status := f.do(t, http.MethodGet, "/api/dashboard", teacher, nil, &dash); status != http.StatusOK {
		t.Fatalf("dashboard: %d", status)
	}
	if dash.Stats.ActiveTakings != 1 {
		t.Fatalf("expected one active taking, got %+v", dash.Stats)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for {
		dash = app.Dashboard{}
		f.do(t, http.MethodGet, "/api/dashboard", teacher, nil, &dash)
		if dash.Stats.ActiveTakings == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected taking finished after disconnect, got %+v", dash.Stats)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
