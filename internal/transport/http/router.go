package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/auth"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Identity  *app.IdentityService
	Authoring *app.AuthoringService
	Taking    *app.TakingService
	Results   *app.ResultsService
	Admin     *app.AdminService
	Catalog   *app.CatalogService
}

// RouterOptions tune the HTTP surface.
type RouterOptions struct {
	// ImagesDir is served at /images when set (local object storage).
	ImagesDir      string
	MaxUploadBytes int64
	SecureCookie   bool
}

const defaultMaxUploadBytes = 5 << 20

// NewRouter wires every route onto a gin engine with logging and recovery.
func NewRouter(svc Services, tokens *auth.Tokens, opts RouterOptions) *gin.Engine {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = opts.MaxUploadBytes

	authn := authenticator{tokens: tokens, identity: svc.Identity}
	h := &handlers{svc: svc, tokens: tokens, opts: opts}
	ws := NewWSHandler(svc.Taking)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/", authn.optionalSession(), h.view)
	if opts.ImagesDir != "" {
		r.Static("/images", opts.ImagesDir)
	}

	api := r.Group("/api")
	{
		api.POST("/login", h.login)

		authed := api.Group("", authn.requireSession())
		authed.POST("/logout", h.logout)
		authed.GET("/me", h.me)

		// teacher
		authed.GET("/dashboard", h.dashboard)
		authed.POST("/reset", h.reset)
		authed.POST("/quizzes", h.saveQuiz)
		authed.GET("/quizzes/:quizId", h.getQuiz)
		authed.PUT("/quizzes/:quizId", h.saveQuiz)
		authed.DELETE("/quizzes/:quizId", h.deleteQuiz)
		authed.GET("/quizzes/:quizId/results", h.quizResults)
		authed.GET("/results", h.results)
		authed.GET("/results/export", h.exportResults)
		authed.POST("/images", h.uploadImage)

		authed.POST("/drafts", h.startDraft)
		authed.GET("/drafts/:draftId", h.getDraft)
		authed.PATCH("/drafts/:draftId", h.editDraft)
		authed.POST("/drafts/:draftId/questions/:index/image", h.attachImage)
		authed.POST("/drafts/:draftId/submit", h.submitDraft)

		// student
		authed.GET("/catalog", h.catalog)
	}

	r.GET("/ws/take", authn.requireSession(), gin.WrapF(ws.ServeWS))

	r.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/")
	})
	return r
}

type handlers struct {
	svc    Services
	tokens *auth.Tokens
	opts   RouterOptions
}
