package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/auth"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/imageproc"
	"math-quiz-service/internal/infra/memory"
)

const teacherName = "shymaa9977"

type fixture struct {
	server   *httptest.Server
	quizzes  *memory.QuizStore
	attempts *memory.AttemptStore
	images   *memory.ImageStore
}

func newFixture(t *testing.T, quizzes ...domain.Quiz) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		quizzes:  memory.NewQuizStore(quizzes...),
		attempts: memory.NewAttemptStore(),
		images:   memory.NewImageStore("/images"),
	}
	tokens, err := auth.NewTokens("test-secret", "math-quiz")
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	svc := Services{
		Identity:  app.NewIdentityService(memory.NewSessionStore(), teacherName),
		Authoring: app.NewAuthoringService(f.quizzes, memory.NewDraftStore(), f.images, imageproc.NewNormalizer(imageproc.Options{})),
		Taking:    app.NewTakingService(f.quizzes, f.attempts),
		Results:   app.NewResultsService(f.quizzes, f.attempts, app.NewDateFormatter("ar-EG", time.UTC)),
		Admin:     app.NewAdminService(f.quizzes, f.attempts, f.images),
		Catalog:   app.NewCatalogService(f.quizzes, f.attempts),
	}
	f.server = httptest.NewServer(NewRouter(svc, tokens, RouterOptions{}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) login(t *testing.T, name string, teacher bool) string {
	t.Helper()
	var resp loginResponse
	status := f.do(t, http.MethodPost, "/api/login", "", map[string]any{"name": name, "isTeacher": teacher}, &resp)
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d", name, status)
	}
	return resp.Token
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (f *fixture) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Arithmetic",
		Subject:   domain.SubjectPureMath,
		Grade:     domain.GradeFirstSecondary,
		CreatedAt: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
		Questions: []domain.Question{
			{ID: "q1", QuestionText: "2 + 2", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: 1},
			{ID: "q2", QuestionText: "3 × 3", Options: []string{"6", "8", "9", "12"}, CorrectAnswer: 2},
		},
	}
}
