package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// dashboard handles GET /api/dashboard
func (h *handlers) dashboard(c *gin.Context) {
	dash, err := h.svc.Admin.Dashboard(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dash.Stats.ActiveTakings = h.svc.Taking.Active()
	c.JSON(http.StatusOK, dash)
}

// reset handles POST /api/reset
func (h *handlers) reset(c *gin.Context) {
	dash, err := h.svc.Admin.Reset(c.Request.Context(), currentSession(c))
	if err != nil {
		writeError(c, err)
		return
	}
	dash.Stats.ActiveTakings = h.svc.Taking.Active()
	c.JSON(http.StatusOK, dash)
}

// saveQuiz handles POST /api/quizzes and PUT /api/quizzes/:quizId
func (h *handlers) saveQuiz(c *gin.Context) {
	var quiz domain.Quiz
	if err := c.ShouldBindJSON(&quiz); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrInvalidQuiz, err))
		return
	}
	if id := c.Param("quizId"); id != "" {
		quiz.ID = id
	}
	saved, err := h.svc.Authoring.SaveQuiz(c.Request.Context(), currentSession(c), quiz)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"quiz": saved, "advisory": domain.Advisory(saved.Subject, saved.Grade)})
}

// getQuiz handles GET /api/quizzes/:quizId
func (h *handlers) getQuiz(c *gin.Context) {
	quiz, err := h.svc.Authoring.GetQuiz(c.Request.Context(), currentSession(c), c.Param("quizId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

// deleteQuiz handles DELETE /api/quizzes/:quizId
func (h *handlers) deleteQuiz(c *gin.Context) {
	if err := h.svc.Authoring.DeleteQuiz(c.Request.Context(), currentSession(c), c.Param("quizId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// quizResults handles GET /api/quizzes/:quizId/results
func (h *handlers) quizResults(c *gin.Context) {
	results, err := h.svc.Results.Results(c.Request.Context(), currentSession(c), c.Param("quizId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// results handles GET /api/results?quizId=
func (h *handlers) results(c *gin.Context) {
	results, err := h.svc.Results.Results(c.Request.Context(), currentSession(c), c.Query("quizId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// exportResults handles GET /api/results/export?quizId=
func (h *handlers) exportResults(c *gin.Context) {
	results, err := h.svc.Results.Results(c.Request.Context(), currentSession(c), c.Query("quizId"))
	if err != nil {
		writeError(c, err)
		return
	}
	buf := new(bytes.Buffer)
	if err := report.WriteWorkbook(buf, results); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="results.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// uploadImage handles POST /api/images (multipart field "file")
func (h *handlers) uploadImage(c *gin.Context) {
	filename, data, err := h.readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	url, err := h.svc.Authoring.UploadImage(c.Request.Context(), currentSession(c), filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}

type startDraftRequest struct {
	QuizID string `json:"quizId"`
}

type draftResponse struct {
	Draft    *app.Draft `json:"draft"`
	Advisory string     `json:"advisory,omitempty"`
}

// startDraft handles POST /api/drafts
func (h *handlers) startDraft(c *gin.Context) {
	var req startDraftRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	draft, err := h.svc.Authoring.StartDraft(c.Request.Context(), currentSession(c), req.QuizID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, draftResponse{Draft: draft, Advisory: draft.Advisory()})
}

// getDraft handles GET /api/drafts/:draftId
func (h *handlers) getDraft(c *gin.Context) {
	draft, err := h.svc.Authoring.GetDraft(c.Request.Context(), currentSession(c), c.Param("draftId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse{Draft: draft, Advisory: draft.Advisory()})
}

// draftEdit is one authoring step. Op selects which fields apply.
type draftEdit struct {
	Op       string         `json:"op" binding:"required,oneof=meta addQuestion removeQuestion text option correct image clearImage"`
	Index    int            `json:"index"`
	Option   int            `json:"option"`
	Text     string         `json:"text"`
	Title    string         `json:"title"`
	Subject  domain.Subject `json:"subject"`
	Grade    domain.Grade   `json:"grade"`
	ImageURL string         `json:"imageUrl"`
}

func (e draftEdit) apply(d *app.Draft) error {
	switch e.Op {
	case "meta":
		return d.SetMeta(e.Title, e.Subject, e.Grade)
	case "addQuestion":
		d.AddQuestion()
		return nil
	case "removeQuestion":
		return d.RemoveQuestion(e.Index)
	case "text":
		return d.SetText(e.Index, e.Text)
	case "option":
		return d.SetOption(e.Index, e.Option, e.Text)
	case "correct":
		return d.SetCorrect(e.Index, e.Option)
	case "image":
		return d.SetImage(e.Index, e.ImageURL)
	case "clearImage":
		return d.ClearImage(e.Index)
	}
	return fmt.Errorf("%w: unknown op %q", domain.ErrInvalidQuiz, e.Op)
}

// editDraft handles PATCH /api/drafts/:draftId
func (h *handlers) editDraft(c *gin.Context) {
	var edit draftEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid draft edit: " + err.Error()})
		return
	}
	draft, err := h.svc.Authoring.EditDraft(c.Request.Context(), currentSession(c), c.Param("draftId"), edit.apply)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse{Draft: draft, Advisory: draft.Advisory()})
}

// attachImage handles POST /api/drafts/:draftId/questions/:index/image
func (h *handlers) attachImage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeError(c, domain.ErrQuestionIndex)
		return
	}
	filename, data, err := h.readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	draft, err := h.svc.Authoring.AttachImage(c.Request.Context(), currentSession(c), c.Param("draftId"), index, filename, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, draftResponse{Draft: draft, Advisory: draft.Advisory()})
}

// submitDraft handles POST /api/drafts/:draftId/submit
func (h *handlers) submitDraft(c *gin.Context) {
	quiz, err := h.svc.Authoring.SubmitDraft(c.Request.Context(), currentSession(c), c.Param("draftId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (h *handlers) readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: missing file", domain.ErrInvalidImage)
	}
	if header.Size > h.opts.MaxUploadBytes {
		return "", nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidImage, h.opts.MaxUploadBytes)
	}
	f, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.opts.MaxUploadBytes+1))
	if err != nil {
		return "", nil, err
	}
	if int64(len(data)) > h.opts.MaxUploadBytes {
		return "", nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidImage, h.opts.MaxUploadBytes)
	}
	return header.Filename, data, nil
}
