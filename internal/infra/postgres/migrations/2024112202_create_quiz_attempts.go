package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
)

// No foreign key to quizzes: deleting a quiz keeps its attempts.
//
//go:embed 0002_create_quiz_attempts.sql
var createAttemptsSQL string

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createAttemptsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS quiz_attempts`)
			return err
		},
	)
}
