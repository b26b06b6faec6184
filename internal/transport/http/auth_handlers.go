package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
)

type loginRequest struct {
	Name      string `json:"name" binding:"required"`
	IsTeacher bool   `json:"isTeacher"`
}

type loginResponse struct {
	Token   string         `json:"token"`
	Session domain.Session `json:"session"`
	View    app.View       `json:"view"`
}

// login handles POST /api/login
func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.ErrInvalidName)
		return
	}
	session, err := h.svc.Identity.Login(c.Request.Context(), req.Name, req.IsTeacher)
	if err != nil {
		writeError(c, err)
		return
	}
	token, err := h.tokens.Issue(session)
	if err != nil {
		writeError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookie, token, 0, "/", "", h.opts.SecureCookie, true)
	c.JSON(http.StatusOK, loginResponse{Token: token, Session: session, View: app.ChooseView(&session)})
}

// logout handles POST /api/logout
func (h *handlers) logout(c *gin.Context) {
	session := currentSession(c)
	if err := h.svc.Identity.Logout(c.Request.Context(), session.ID); err != nil {
		writeError(c, err)
		return
	}
	c.SetCookie(AuthCookie, "", -1, "/", "", h.opts.SecureCookie, true)
	c.Status(http.StatusNoContent)
}

// me handles GET /api/me
func (h *handlers) me(c *gin.Context) {
	session := currentSession(c)
	c.JSON(http.StatusOK, gin.H{"session": session, "view": app.ChooseView(&session)})
}

// view handles GET /: the top-level screen for the caller.
func (h *handlers) view(c *gin.Context) {
	session, ok := sessionFrom(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"view": app.ChooseView(nil)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": app.ChooseView(&session), "session": session})
}
