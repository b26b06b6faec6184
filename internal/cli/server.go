package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/auth"
	"math-quiz-service/internal/config"
	"math-quiz-service/internal/infra/imageproc"
	transport "math-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = randomSecret()
		log.Printf("auth.secret not set, generated one; sessions will not survive a restart")
	}
	tokens, err := auth.NewTokens(secret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	if cfg.Auth.TeacherName == "" {
		log.Printf("auth.teacher_name not set, nobody can log in as teacher")
	}

	normalizer := imageproc.NewNormalizer(imageproc.Options{
		MaxWidth:    cfg.Images.MaxWidth,
		MaxHeight:   cfg.Images.MaxHeight,
		WebPQuality: cfg.Images.WebPQuality,
	})
	dates := app.NewDateFormatter(cfg.Results.Locale, cfg.Location())

	services := transport.Services{
		Identity:  app.NewIdentityService(b.sessions, cfg.Auth.TeacherName),
		Authoring: app.NewAuthoringService(b.quizzes, b.drafts, b.images, normalizer),
		Taking:    app.NewTakingService(b.quizzes, b.attempts),
		Results:   app.NewResultsService(b.quizzes, b.attempts, dates),
		Admin:     app.NewAdminService(b.quizzes, b.attempts, b.images),
		Catalog:   app.NewCatalogService(b.quizzes, b.attempts),
	}
	router := transport.NewRouter(services, tokens, transport.RouterOptions{
		ImagesDir:      b.imagesDir,
		MaxUploadBytes: cfg.Images.MaxUploadBytes,
		SecureCookie:   cfg.Server.SecureCookie,
	})

	// no WriteTimeout: a taking holds its websocket for the whole quiz
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting math quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
