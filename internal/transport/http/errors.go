package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"math-quiz-service/internal/domain"
)

var statusByErr = []struct {
	err    error
	status int
}{
	{domain.ErrResetFailed, http.StatusInternalServerError},
	{domain.ErrInvalidQuiz, http.StatusBadRequest},
	{domain.ErrInvalidName, http.StatusBadRequest},
	{domain.ErrInvalidImage, http.StatusBadRequest},
	{domain.ErrLastQuestion, http.StatusBadRequest},
	{domain.ErrQuestionIndex, http.StatusBadRequest},
	{domain.ErrOptionIndex, http.StatusBadRequest},
	{domain.ErrInvalidTransition, http.StatusBadRequest},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrSessionNotFound, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrQuizNotFound, http.StatusNotFound},
	{domain.ErrDraftNotFound, http.StatusNotFound},
	{domain.ErrAlreadyAttempted, http.StatusConflict},
	{domain.ErrTakingClosed, http.StatusConflict},
}

// statusFor maps domain errors to HTTP status codes. Anything unknown is a 500.
func statusFor(err error) int {
	for _, m := range statusByErr {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// writeError aborts the request with a JSON error body. Store failures are
// logged and reported generically.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "internal error"
		if errors.Is(err, domain.ErrResetFailed) {
			msg = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
