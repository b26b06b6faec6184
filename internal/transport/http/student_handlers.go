package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"math-quiz-service/internal/domain"
)

// catalog handles GET /api/catalog?grade=&subject=
func (h *handlers) catalog(c *gin.Context) {
	grade := domain.Grade(c.Query("grade"))
	if grade != "" && !domain.ValidGrade(grade) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown grade"})
		return
	}
	subject := domain.Subject(c.Query("subject"))
	if subject != "" && !domain.ValidSubject(subject) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown subject"})
		return
	}
	catalog, err := h.svc.Catalog.Browse(c.Request.Context(), currentSession(c), grade, subject)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}
