package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"math-quiz-service/internal/app"
	"math-quiz-service/internal/config"
	"math-quiz-service/internal/domain"
	"math-quiz-service/internal/infra/memory"
	"math-quiz-service/internal/infra/postgres"
	infraredis "math-quiz-service/internal/infra/redis"
	"math-quiz-service/internal/infra/sqlite"
	"math-quiz-service/internal/infra/storage"
)

// backend holds the stores chosen from config, plus what must be closed.
type backend struct {
	quizzes   app.QuizRepository
	attempts  app.AttemptRepository
	sessions  app.SessionRepository
	drafts    app.DraftRepository
	images    app.ImageStore
	imagesDir string

	closers []func()
}

// openBackend picks Postgres, then SQLite, then memory for quizzes and
// attempts. Redis, when configured, fronts quizzes and keeps sessions and drafts.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}

	switch {
	case cfg.Postgres.URL != "":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.quizzes = postgres.NewQuizRepository(pool)
		b.attempts = postgres.NewAttemptRepository(pool)
		log.Printf("using postgres storage")
	case cfg.SQLite.Path != "":
		store, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.quizzes = store
		b.attempts = store
		log.Printf("using sqlite storage at %s", cfg.SQLite.Path)
	default:
		b.quizzes = memory.NewQuizStore()
		b.attempts = memory.NewAttemptStore()
		log.Printf("using in-memory storage; data is lost on restart")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	draftTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.quizzes = infraredis.NewQuizCache(client, b.quizzes, quizTTL)
		b.sessions = infraredis.NewSessionStore(client)
		b.drafts = infraredis.NewDraftStore(client, draftTTL)
	} else {
		b.quizzes = memory.NewQuizCache(b.quizzes, quizTTL)
		b.sessions = memory.NewSessionStore()
		b.drafts = memory.NewDraftStore()
	}

	switch cfg.Storage.Driver {
	case "supabase":
		if cfg.Storage.SupabaseURL == "" || cfg.Storage.SupabaseKey == "" {
			b.Close()
			return nil, fmt.Errorf("supabase storage needs supabase_url and supabase_key")
		}
		b.images = storage.NewSupabaseBucket(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.Bucket)
	case "memory":
		b.images = memory.NewImageStore(cfg.Storage.BaseURL)
	case "local":
		bucket, err := storage.NewLocalBucket(cfg.Storage.Dir, cfg.Storage.BaseURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.images = bucket
		b.imagesDir = bucket.Root()
	default:
		b.Close()
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return b, nil
}

// Close releases pools and clients in reverse order of opening.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// teacherSession is the session the offline admin commands act as.
func teacherSession(cfg config.Config) (domain.Session, error) {
	if cfg.Auth.TeacherName == "" {
		return domain.Session{}, fmt.Errorf("auth.teacher_name not configured")
	}
	return domain.Session{ID: "cli", IsTeacher: true, StudentName: cfg.Auth.TeacherName}, nil
}
