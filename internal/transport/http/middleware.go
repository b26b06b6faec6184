package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/auth"
	"math-quiz-service/internal/domain"
)

// AuthCookie carries the session token for browsers and websocket upgrades.
const AuthCookie = "math_quiz_auth"

type sessionKey struct{}

func withSession(ctx context.Context, session domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// sessionFrom returns the session attached by the middleware.
func sessionFrom(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(domain.Session)
	return session, ok
}

type authenticator struct {
	tokens   *auth.Tokens
	identity *app.IdentityService
}

// resolve finds the caller's token, verifies it and confirms the session is
// still stored, so a logged-out token stops working.
func (a authenticator) resolve(c *gin.Context) (domain.Session, error) {
	token := auth.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token, _ = c.Cookie(AuthCookie)
	}
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	claimed, err := a.tokens.Parse(token)
	if err != nil {
		return domain.Session{}, err
	}
	session, err := a.identity.Current(c.Request.Context(), claimed.ID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	if err != nil {
		return domain.Session{}, err
	}
	session.ID = claimed.ID
	return session, nil
}

// requireSession rejects requests without a live session.
func (a authenticator) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := a.resolve(c)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Request = c.Request.WithContext(withSession(c.Request.Context(), session))
		c.Next()
	}
}

// optionalSession attaches a session when one is present.
func (a authenticator) optionalSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, err := a.resolve(c); err == nil {
			c.Request = c.Request.WithContext(withSession(c.Request.Context(), session))
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) domain.Session {
	session, _ := sessionFrom(c.Request.Context())
	return session
}
